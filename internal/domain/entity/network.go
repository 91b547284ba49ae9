package entity

import (
	"sort"
	"strings"
)

// Network is a configured upstream endpoint together with the tags it was declared with.
// The tag set is fixed at construction.
type Network struct {
	endpoint string
	tags     map[string]struct{}
}

// NewNetwork copies tags into a new Network.
func NewNetwork(endpoint string, tags []string) Network {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return Network{endpoint: endpoint, tags: set}
}

// Endpoint returns the endpoint URL string.
func (n Network) Endpoint() string {
	return n.endpoint
}

// HasTag reports whether the network was declared with tag. Matching is exact and case-sensitive.
func (n Network) HasTag(tag string) bool {
	_, ok := n.tags[tag]
	return ok
}

// Tags returns the tag set in sorted order.
func (n Network) Tags() []string {
	out := make([]string, 0, len(n.tags))
	for t := range n.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether every predicate of q holds for the network. An empty query matches.
func (n Network) Matches(q TagQuery) bool {
	for _, p := range q {
		if !p.Holds(n) {
			return false
		}
	}
	return true
}

// PredicateKind distinguishes inclusion from exclusion predicates.
type PredicateKind int

const (
	// Has requires the tag to be present.
	Has PredicateKind = iota
	// Lacks requires the tag to be absent.
	Lacks
)

// TagPredicate is a single parsed tag-query token.
type TagPredicate struct {
	Kind PredicateKind
	Tag  string
}

// ParseTagToken parses one query token. A leading '-' followed by at least one character means
// Lacks; anything else, including a lone "-", is Has as written. An empty token yields no predicate.
func ParseTagToken(token string) (TagPredicate, bool) {
	if token == "" {
		return TagPredicate{}, false
	}
	if len(token) > 1 && strings.HasPrefix(token, "-") {
		return TagPredicate{Kind: Lacks, Tag: token[1:]}, true
	}
	return TagPredicate{Kind: Has, Tag: token}, true
}

// Holds evaluates the predicate against a network.
func (p TagPredicate) Holds(n Network) bool {
	if p.Kind == Lacks {
		return !n.HasTag(p.Tag)
	}
	return n.HasTag(p.Tag)
}

func (p TagPredicate) String() string {
	if p.Kind == Lacks {
		return "-" + p.Tag
	}
	return p.Tag
}

// TagQuery is a conjunction of tag predicates.
type TagQuery []TagPredicate

// NewTagQuery parses a set of tokens, skipping empty ones.
func NewTagQuery(tokens ...string) TagQuery {
	q := make(TagQuery, 0, len(tokens))
	for _, tok := range tokens {
		if p, ok := ParseTagToken(tok); ok {
			q = append(q, p)
		}
	}
	return q
}

// ParseTagQuery parses a comma separated query string such as "archive, -staging".
func ParseTagQuery(s string) TagQuery {
	parts := strings.Split(strings.TrimSpace(s), ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return NewTagQuery(tokens...)
}

// FilterNetworks keeps the networks matching q, preserving order.
func FilterNetworks(networks []Network, q TagQuery) []Network {
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		if n.Matches(q) {
			out = append(out, n)
		}
	}
	return out
}
