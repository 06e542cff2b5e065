package fortress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// asDescription widens the nested-mapping forms a schema value may take.
func asDescription(v any) (Description, bool) {
	switch m := v.(type) {
	case Description:
		return m, true
	case map[string]any:
		return Description(m), true
	}
	return nil, false
}

// canonicalForm renders a schema description plus options into a
// deterministic string: keys sorted, type strings quoted, nested objects
// recursed. The compilation cache keys on this full form rather than a hash
// of it, so hash collisions can never alias two distinct schemas; the
// xxhash digest over it serves only as a compact display signature.
func canonicalForm(desc Description, opts Options) (string, error) {
	var b strings.Builder
	if err := writeCanonical(&b, desc, 1, opts.MaxCompilationDepth); err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "#opts{nest:%d,comp:%d,strict:%t,unknown:%d}",
		opts.MaxNestingDepth, opts.MaxCompilationDepth, opts.StrictMode, opts.UnknownFields)
	return b.String(), nil
}

func writeCanonical(b *strings.Builder, desc Description, depth, maxDepth int) error {
	// Past the compilation depth limit nested objects compile to a shallow
	// object check, so their internal shape no longer distinguishes schemas;
	// truncating here also terminates on self-referential descriptions.
	if depth > maxDepth {
		b.WriteString("{...}")
		return nil
	}
	keys := make([]string, 0, len(desc))
	for k := range desc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		switch v := desc[k].(type) {
		case string:
			b.WriteString(strconv.Quote(v))
		default:
			nested, ok := asDescription(v)
			if !ok {
				return fmt.Errorf("field %q: schema values must be type strings or nested objects, got %T", k, v)
			}
			if err := writeCanonical(b, nested, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	b.WriteByte('}')
	return nil
}

func signatureOf(canonical string) string {
	return strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}
