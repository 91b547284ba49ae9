package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// KeySeparator separates the operation name from encoded arguments in a cache key.
const KeySeparator = "|"

// ResultCache memoizes producer results under a key for a time-to-live.
type ResultCache interface {
	// Memoize returns the live value stored under key, or runs producer and stores its result
	// for ttl. Producer errors are returned and not stored.
	Memoize(key string, ttl time.Duration, producer func() (any, error)) (any, error)
}

// Memoize is the typed form of ResultCache.Memoize.
func Memoize[T any](c ResultCache, key string, ttl time.Duration, producer func() (T, error)) (T, error) {
	value, err := c.Memoize(key, ttl, func() (any, error) {
		return producer()
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached value under %q has type %T", key, value)
	}
	return typed, nil
}

// Key builds a cache key from an operation name and its arguments.
// Arguments are JSON encoded so that equal values always produce equal keys.
func Key(operation string, args ...any) string {
	var b strings.Builder
	b.WriteString(operation)
	for _, arg := range args {
		b.WriteString(KeySeparator)
		encoded, err := json.Marshal(arg)
		if err != nil {
			fmt.Fprintf(&b, "%v", arg)
			continue
		}
		b.Write(encoded)
	}
	return b.String()
}

// Operation returns the operation part of a key built by Key.
func Operation(key string) string {
	op, _, _ := strings.Cut(key, KeySeparator)
	return op
}
