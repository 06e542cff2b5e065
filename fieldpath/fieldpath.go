// Package fieldpath resolves dotted/bracketed paths against decoded data.
//
// Resolution is tolerant by contract: a missing intermediate never produces
// an error, it produces "not found". This is what lets conditional
// expressions probe sibling data that may legitimately be absent.
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a path: a bare name or a bracket-quoted key.
type Segment struct {
	Key    string
	Quoted bool
}

// dangerousKeys are prototype-chain property names that must never resolve,
// mirroring the prototype-pollution defenses of the schema engine's inputs.
var dangerousKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// Parse splits a path written with mixed dot/bracket notation, e.g.
// `config["special-key"].nested`, into segments.
func Parse(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("fieldpath: empty path")
	}
	var segs []Segment
	i := 0
	expectDot := false
	for i < len(path) {
		switch {
		case path[i] == '.':
			if !expectDot {
				return nil, fmt.Errorf("fieldpath: unexpected '.' at offset %d", i)
			}
			expectDot = false
			i++
		case path[i] == '[':
			seg, next, err := parseBracket(path, i)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i = next
			expectDot = true
		default:
			if expectDot {
				return nil, fmt.Errorf("fieldpath: expected '.' or '[' at offset %d", i)
			}
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			segs = append(segs, Segment{Key: path[start:i]})
			expectDot = true
		}
	}
	if !expectDot {
		return nil, fmt.Errorf("fieldpath: trailing '.' in path")
	}
	return segs, nil
}

func parseBracket(path string, i int) (Segment, int, error) {
	open := i
	i++ // '['
	if i >= len(path) {
		return Segment{}, 0, fmt.Errorf("fieldpath: unterminated bracket at offset %d", open)
	}
	quote := path[i]
	if quote == '"' || quote == '\'' {
		i++
		var b strings.Builder
		for i < len(path) && path[i] != quote {
			if path[i] == '\\' && i+1 < len(path) {
				i++
			}
			b.WriteByte(path[i])
			i++
		}
		if i >= len(path) {
			return Segment{}, 0, fmt.Errorf("fieldpath: unterminated string key at offset %d", open)
		}
		i++ // closing quote
		if i >= len(path) || path[i] != ']' {
			return Segment{}, 0, fmt.Errorf("fieldpath: expected ']' at offset %d", i)
		}
		return Segment{Key: b.String(), Quoted: true}, i + 1, nil
	}
	// unquoted bracket content (numeric index)
	end := strings.IndexByte(path[i:], ']')
	if end < 0 {
		return Segment{}, 0, fmt.Errorf("fieldpath: unterminated bracket at offset %d", open)
	}
	key := path[i : i+end]
	if key == "" {
		return Segment{}, 0, fmt.Errorf("fieldpath: empty bracket key at offset %d", open)
	}
	return Segment{Key: key, Quoted: true}, i + end + 1, nil
}

// Resolve walks segs from root and returns the value found there. found is
// false when any step is absent; explicit nulls stored under a present key
// resolve as (nil, true), which is distinct from not-found.
func Resolve(root any, segs []Segment) (any, bool) {
	cur := root
	for _, seg := range segs {
		if _, bad := dangerousKeys[seg.Key]; bad {
			return nil, false
		}
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[any]any: // yaml.v3 can produce this for non-string keys
			v, ok := c[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg.Key)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Get is a convenience combining Parse and Resolve. A malformed path
// resolves to not-found rather than erroring, matching the engine's
// tolerant lookup contract.
func Get(root any, path string) (any, bool) {
	segs, err := Parse(path)
	if err != nil {
		return nil, false
	}
	return Resolve(root, segs)
}
