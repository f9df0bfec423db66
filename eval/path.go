package eval

import (
	"strconv"
	"strings"
)

// lookupPath resolves a dotted path with optional [index] suffixes
// against env: "customer.orders[0].total". The boolean reports whether
// the full path resolved; missing segments yield (nil, false).
func lookupPath(env map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}

	var cur any = env
	for _, seg := range strings.Split(path, ".") {
		name, indexes, ok := splitSegment(seg)
		if !ok {
			return nil, false
		}
		if name != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			list, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
		}
	}
	return cur, true
}

// splitSegment splits "orders[0][1]" into its name and index list.
func splitSegment(seg string) (name string, indexes []int, ok bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return "", nil, false
	}
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, nil, true
	}
	name = seg[:open]
	rest := seg[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, n)
		rest = rest[end+1:]
	}
	return name, indexes, true
}
