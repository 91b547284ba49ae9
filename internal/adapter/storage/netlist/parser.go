package netlist

import (
	"bufio"
	"io"
	"strings"

	"chainstate/internal/domain/entity"
)

const tagLinePrefix = "#"

// ParseLines builds networks from an endpoint list split into lines.
// A "#a,b" line tags the next endpoint line only; a second tag line before it replaces the first.
func ParseLines(lines []string) []entity.Network {
	var (
		networks []entity.Network
		pending  []string
	)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, tagLinePrefix) {
			pending = splitTags(strings.TrimPrefix(line, tagLinePrefix))
			continue
		}
		networks = append(networks, entity.NewNetwork(line, pending))
		pending = nil
	}
	return networks
}

// ParseText splits r into lines and parses them with ParseLines.
func ParseText(r io.Reader) ([]entity.Network, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ParseLines(lines), nil
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
