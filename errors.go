package fortress

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeRequired         = "required"
	CodeUnknownKey       = "unknown_key"
	CodeTooShort         = "too_short"
	CodeTooLong          = "too_long"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
	CodePattern          = "pattern"
	CodeNotInteger       = "not_integer"
	CodeNotFinite        = "not_finite"
	CodeInvalidEnum      = "invalid_enum"
	CodeTooFewItems      = "too_few_items"
	CodeTooManyItems     = "too_many_items"
	CodeDuplicateItem    = "duplicate_item"
	CodeConstantMismatch = "constant_mismatch"
	// Definition-time codes (schema/expression problems)
	CodeParseError     = "parse_error"
	CodeUnknownType    = "unknown_type"
	CodeDepthExceeded  = "depth_exceeded"
	CodeCircularSchema = "circular_schema"
	CodeInvalidSchema  = "invalid_schema"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected values, etc.
	// Position is the character offset inside a conditional expression for
	// definition-time parse issues (-1 when not applicable).
	Position int
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation entries that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// rebase prefixes every issue path with base so child-validator issues read
// from the enclosing object's root.
func rebase(base string, iss Issues) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}
