package fortress

import (
	"fmt"
	"strings"
)

// UnionEntry is the precomputed form of a union type string such as
// "admin|user|guest". Entries are immutable once created and shared by
// reference across every field and schema using the exact same string.
type UnionEntry struct {
	Allowed       map[string]struct{}
	Ordered       []string // declaration order, for error messages
	ErrorTemplate string
}

// CachedUnion returns the cached entry for raw, building it on first use.
// Repeated calls with an identical union string return the same instance.
func (e *Engine) CachedUnion(raw string) *UnionEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok := e.unions[raw]; ok {
		return ent
	}
	ent := buildUnionEntry(raw)
	e.unions[raw] = ent
	return ent
}

func buildUnionEntry(raw string) *UnionEntry {
	parts := strings.Split(raw, "|")
	ent := &UnionEntry{Allowed: make(map[string]struct{}, len(parts))}
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		if _, dup := ent.Allowed[v]; dup {
			continue
		}
		ent.Allowed[v] = struct{}{}
		ent.Ordered = append(ent.Ordered, v)
	}
	ent.ErrorTemplate = fmt.Sprintf("expected one of: %s", strings.Join(ent.Ordered, ", "))
	return ent
}

// Contains reports membership of the string-normalized value.
func (u *UnionEntry) Contains(v string) bool {
	_, ok := u.Allowed[v]
	return ok
}
