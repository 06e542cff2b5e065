package fortress

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fortress-schema/fortress/i18n"
)

// fieldResult is the outcome of validating one field.
type fieldResult struct {
	value any
	omit  bool // leave the field out of validated output
	errs  Issues
	warns Issues
}

// fieldFn validates one field. root is the full candidate object so
// conditional fields can probe sibling data; present distinguishes an absent
// key from an explicit null.
type fieldFn func(root any, value any, present bool) fieldResult

// fieldCategory partitions fields for the ULTRA assembly tier.
type fieldCategory int

const (
	catSimple fieldCategory = iota
	catUnion
	catArray
	catNested
)

// fieldCompilation is the per-field artifact produced once per schema
// compilation and owned by the enclosing compiledSchema.
type fieldCompilation struct {
	name         string
	declaredType string
	fn           fieldFn
	category     fieldCategory
	optional     bool
	union        bool
	array        bool
	nested       bool
	conditional  bool
	constrained  bool
	hasDefault   bool
	defaultValue any
}

func fieldIssue(name, code string, params map[string]any) Issue {
	data := map[string]string{"field": name}
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return Issue{Path: "/" + name, Code: code, Message: i18n.T(code, data), Position: -1, Params: params}
}

func failField(name, code string, params map[string]any) fieldResult {
	return fieldResult{errs: Issues{fieldIssue(name, code, params)}}
}

// compileType dispatches a type string to its field precompiler. Modifier
// order, outermost first: conditional ("when ..."), optional-with-default
// ("T? = v"), optional ("T?"), array ("T[]", "T[](min,max[,unique])"),
// constant ("=v"), union ("a|b|c"), then the constraint grammar
// ("type(args)"). Unrecognized names compile to a permissive pass-through
// with a warning unless StrictMode makes them a hard error.
func (c *compiler) compileType(name, raw string) (*fieldCompilation, error) {
	spec := strings.TrimSpace(raw)
	if spec == "" {
		return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: "empty type specification", Position: -1}}
	}
	if strings.HasPrefix(spec, "when ") || spec == "when" {
		return c.compileConditional(name, spec)
	}
	if base, def, ok := splitOptionalDefault(spec); ok {
		return c.compileOptional(name, base, true, def)
	}
	if base, ok := strings.CutSuffix(spec, "?"); ok {
		return c.compileOptional(name, base, false, nil)
	}
	if elem, args, ok := splitArraySuffix(spec); ok {
		return c.compileArray(name, elem, args)
	}
	if val, ok := strings.CutPrefix(spec, "="); ok {
		return c.compileConstant(name, strings.TrimSpace(val))
	}
	if hasTopLevelPipe(spec) {
		return c.compileUnion(name, spec)
	}
	return c.compileTerminal(name, spec)
}

// hasTopLevelPipe reports a '|' outside parens, brackets and /regex/
// literals, so "string(/a|b/)" stays a constrained string rather than a
// union.
func hasTopLevelPipe(spec string) bool {
	depth := 0
	inRegex := false
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '/':
			if i == 0 || spec[i-1] != '\\' {
				inRegex = !inRegex
			}
		case '(', '[':
			if !inRegex {
				depth++
			}
		case ')', ']':
			if !inRegex {
				depth--
			}
		case '|':
			if depth == 0 && !inRegex {
				return true
			}
		}
	}
	return false
}

// splitOptionalDefault matches "base? = literal".
func splitOptionalDefault(spec string) (base string, def any, ok bool) {
	i := strings.Index(spec, "?")
	if i < 0 || i == len(spec)-1 {
		return "", nil, false
	}
	rest := strings.TrimSpace(spec[i+1:])
	if !strings.HasPrefix(rest, "=") {
		return "", nil, false
	}
	return strings.TrimSpace(spec[:i]), parseScalar(strings.TrimSpace(rest[1:])), true
}

// splitArraySuffix matches "elem[]" and "elem[](args)".
func splitArraySuffix(spec string) (elem, args string, ok bool) {
	if e, found := strings.CutSuffix(spec, "[]"); found {
		return e, "", true
	}
	i := strings.LastIndex(spec, "[](")
	if i >= 0 && strings.HasSuffix(spec, ")") {
		return spec[:i], spec[i+3 : len(spec)-1], true
	}
	return "", "", false
}

// parseScalar interprets a default or constant literal the way expression
// literals read: bool, number, then string.
func parseScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func (c *compiler) compileOptional(name, base string, hasDefault bool, def any) (*fieldCompilation, error) {
	inner, err := c.compileType(name, base)
	if err != nil {
		return nil, err
	}
	fc := *inner
	fc.declaredType = base + "?"
	fc.optional = true
	fc.hasDefault = hasDefault
	fc.defaultValue = def
	innerFn := inner.fn
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			if hasDefault {
				return fieldResult{value: def}
			}
			return fieldResult{omit: true}
		}
		return innerFn(root, value, true)
	}
	return &fc, nil
}

func (c *compiler) compileArray(name, elem, args string) (*fieldCompilation, error) {
	elemFC, err := c.compileType(name, elem)
	if err != nil {
		return nil, err
	}
	minItems, maxItems := -1, -1
	unique := false
	for _, a := range splitArgs(args) {
		switch {
		case a == "unique":
			unique = true
		case minItems < 0:
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: fmt.Sprintf("bad array constraint %q", a), Position: -1}}
			}
			minItems = n
		case maxItems < 0:
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: fmt.Sprintf("bad array constraint %q", a), Position: -1}}
			}
			maxItems = n
		}
	}
	elemFn := elemFC.fn
	fc := &fieldCompilation{
		name:         name,
		declaredType: elem + "[]",
		category:     catArray,
		array:        true,
		constrained:  minItems >= 0 || maxItems >= 0 || unique,
	}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		arr, ok := value.([]any)
		if !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "array"})
		}
		var res fieldResult
		if minItems >= 0 && len(arr) < minItems {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooFewItems, map[string]any{"min": minItems, "got": len(arr)}))
		}
		if maxItems >= 0 && len(arr) > maxItems {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooManyItems, map[string]any{"max": maxItems, "got": len(arr)}))
		}
		seen := map[string]int{}
		out := make([]any, 0, len(arr))
		for i, el := range arr {
			if unique {
				key := canonicalScalar(el)
				if first, dup := seen[key]; dup {
					iss := fieldIssue(name, CodeDuplicateItem, map[string]any{"index": i, "first": first})
					iss.Path = fmt.Sprintf("/%s/%d", name, i)
					res.errs = AppendIssues(res.errs, iss)
				} else {
					seen[key] = i
				}
			}
			er := elemFn(root, el, true)
			res.errs = append(res.errs, rebase(fmt.Sprintf("/%s/%d", name, i), stripFieldPrefix(name, er.errs))...)
			res.warns = append(res.warns, rebase(fmt.Sprintf("/%s/%d", name, i), stripFieldPrefix(name, er.warns))...)
			out = append(out, er.value)
		}
		if len(res.errs) > 0 {
			return res
		}
		res.value = out
		return res
	}
	return fc, nil
}

// stripFieldPrefix removes the element validator's own "/name" prefix so the
// array wrapper can rebase issues under "/name/index" instead.
func stripFieldPrefix(name string, iss Issues) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, 0, len(iss))
	prefix := "/" + name
	for _, it := range iss {
		p := strings.TrimPrefix(it.Path, prefix)
		if p == "" {
			p = "/"
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

func (c *compiler) compileConstant(name, raw string) (*fieldCompilation, error) {
	fc := &fieldCompilation{name: name, declaredType: "=" + raw, category: catSimple}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var want []string
		for _, part := range splitArgs(raw[1 : len(raw)-1]) {
			want = append(want, canonicalScalar(parseScalar(part)))
		}
		fc.fn = func(root, value any, present bool) fieldResult {
			if !present {
				return failField(name, CodeRequired, nil)
			}
			arr, ok := value.([]any)
			if !ok || len(arr) != len(want) {
				return failField(name, CodeConstantMismatch, map[string]any{"expected": raw})
			}
			for i, el := range arr {
				if canonicalScalar(el) != want[i] {
					return failField(name, CodeConstantMismatch, map[string]any{"expected": raw})
				}
			}
			return fieldResult{value: value}
		}
		return fc, nil
	}
	want := parseScalar(raw)
	wantStr := canonicalScalar(want)
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		if canonicalScalar(value) != wantStr {
			return failField(name, CodeConstantMismatch, map[string]any{"expected": raw, "got": value})
		}
		return fieldResult{value: value}
	}
	return fc, nil
}

func (c *compiler) compileUnion(name, raw string) (*fieldCompilation, error) {
	ent := c.eng.CachedUnion(raw)
	if len(ent.Ordered) == 0 {
		return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: fmt.Sprintf("union %q has no alternatives", raw), Position: -1}}
	}
	fc := &fieldCompilation{name: name, declaredType: raw, category: catUnion, union: true}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		if !ent.Contains(canonicalScalar(value)) {
			r := failField(name, CodeInvalidEnum, map[string]any{"got": value})
			r.errs[0].Hint = ent.ErrorTemplate
			return r
		}
		return fieldResult{value: value}
	}
	return fc, nil
}

// compileTerminal handles the constraint-parenthesis grammar for terminal
// type names: "string(2,50)", "int(0,120)", "number(0,1.5)", plus the bare
// names (boolean, any, object, email, uuid, ...).
func (c *compiler) compileTerminal(name, spec string) (*fieldCompilation, error) {
	family := spec
	var args []string
	if i := strings.IndexByte(spec, '('); i >= 0 && strings.HasSuffix(spec, ")") {
		family = spec[:i]
		args = splitArgs(spec[i+1 : len(spec)-1])
	}
	switch family {
	case "string", "text":
		return c.compileString(name, spec, args, nil)
	case "email":
		return c.compileString(name, spec, args, emailPattern)
	case "url":
		return c.compileString(name, spec, args, urlPattern)
	case "uuid":
		return c.compileString(name, spec, args, uuidPattern)
	case "number", "float", "double":
		return c.compileNumber(name, spec, args, false)
	case "int", "integer":
		return c.compileNumber(name, spec, args, true)
	case "positive":
		return c.compileNumberSign(name, spec, true)
	case "negative":
		return c.compileNumberSign(name, spec, false)
	case "boolean", "bool":
		return c.compileBool(name, spec)
	case "any":
		fc := &fieldCompilation{name: name, declaredType: spec, category: catSimple}
		fc.fn = func(root, value any, present bool) fieldResult {
			if !present {
				return failField(name, CodeRequired, nil)
			}
			return fieldResult{value: value}
		}
		return fc, nil
	case "object":
		return c.shallowObject(name, spec, nil), nil
	}
	if c.opts.StrictMode {
		return nil, Issues{{
			Path: "/" + name, Code: CodeUnknownType, Position: -1,
			Message: fmt.Sprintf("unknown type %q", family),
			Hint:    "strict mode rejects unrecognized type names",
		}}
	}
	// Unknown names degrade to a pass-through that warns on every
	// validation; newer schema vocabularies stay loadable on older engines.
	warn := Issue{
		Path: "/" + name, Code: CodeUnknownType, Position: -1,
		Message: fmt.Sprintf("unknown type %q, field passes through unvalidated", family),
	}
	fc := &fieldCompilation{name: name, declaredType: spec, category: catSimple}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		return fieldResult{value: value, warns: Issues{warn}}
	}
	return fc, nil
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern   = regexp.MustCompile(`^https?://\S+$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func (c *compiler) compileString(name, spec string, args []string, format *regexp.Regexp) (*fieldCompilation, error) {
	minLen, maxLen := -1, -1
	pattern := format
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			if minLen < 0 {
				minLen = n
			} else {
				maxLen = n
			}
			continue
		}
		pat := strings.TrimSuffix(strings.TrimPrefix(a, "/"), "/")
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: fmt.Sprintf("bad pattern in %q: %v", spec, err), Position: -1}}
		}
		pattern = re
	}
	fc := &fieldCompilation{
		name:         name,
		declaredType: spec,
		category:     catSimple,
		constrained:  minLen >= 0 || maxLen >= 0 || pattern != nil,
	}
	if !fc.constrained {
		// fast path: unconstrained strings only type-check
		fc.fn = func(root, value any, present bool) fieldResult {
			if !present {
				return failField(name, CodeRequired, nil)
			}
			if _, ok := value.(string); !ok {
				return failField(name, CodeInvalidType, map[string]any{"expected": "string"})
			}
			return fieldResult{value: value}
		}
		return fc, nil
	}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		s, ok := value.(string)
		if !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "string"})
		}
		var res fieldResult
		n := len([]rune(s))
		if minLen >= 0 && n < minLen {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooShort, map[string]any{"min": minLen, "got": n}))
		}
		if maxLen >= 0 && n > maxLen {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooLong, map[string]any{"max": maxLen, "got": n}))
		}
		if pattern != nil && !pattern.MatchString(s) {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodePattern, map[string]any{"pattern": pattern.String()}))
		}
		if len(res.errs) == 0 {
			res.value = s
		}
		return res
	}
	return fc, nil
}

func (c *compiler) compileNumber(name, spec string, args []string, intOnly bool) (*fieldCompilation, error) {
	var minVal, maxVal *float64
	for _, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, Issues{{Path: "/" + name, Code: CodeInvalidSchema, Message: fmt.Sprintf("bad numeric constraint %q in %q", a, spec), Position: -1}}
		}
		v := f
		if minVal == nil {
			minVal = &v
		} else if maxVal == nil {
			maxVal = &v
		}
	}
	fc := &fieldCompilation{
		name:         name,
		declaredType: spec,
		category:     catSimple,
		constrained:  minVal != nil || maxVal != nil || intOnly,
	}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		f, ok := asFloat(value)
		if !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "number"})
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return failField(name, CodeNotFinite, nil)
		}
		var res fieldResult
		if intOnly && f != math.Trunc(f) {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeNotInteger, map[string]any{"got": f}))
		}
		if minVal != nil && f < *minVal {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooSmall, map[string]any{"min": *minVal, "got": f}))
		}
		if maxVal != nil && f > *maxVal {
			res.errs = AppendIssues(res.errs, fieldIssue(name, CodeTooBig, map[string]any{"max": *maxVal, "got": f}))
		}
		if len(res.errs) == 0 {
			res.value = value
		}
		return res
	}
	return fc, nil
}

// compileNumberSign is the "positive"/"negative" family: any finite number
// strictly above or below zero.
func (c *compiler) compileNumberSign(name, spec string, positive bool) (*fieldCompilation, error) {
	fc := &fieldCompilation{name: name, declaredType: spec, category: catSimple, constrained: true}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		f, ok := asFloat(value)
		if !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "number"})
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return failField(name, CodeNotFinite, nil)
		}
		if positive && f <= 0 {
			return failField(name, CodeTooSmall, map[string]any{"min": "0 (exclusive)", "got": f})
		}
		if !positive && f >= 0 {
			return failField(name, CodeTooBig, map[string]any{"max": "0 (exclusive)", "got": f})
		}
		return fieldResult{value: value}
	}
	return fc, nil
}

func (c *compiler) compileBool(name, spec string) (*fieldCompilation, error) {
	fc := &fieldCompilation{name: name, declaredType: spec, category: catSimple}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		// strict: no coercion from "true"/1 at this layer
		if _, ok := value.(bool); !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "boolean"})
		}
		return fieldResult{value: value}
	}
	return fc, nil
}

// shallowObject checks only that the value is an object. It is both the
// "object" terminal type and the degraded form of nested objects past the
// compilation depth limit, in which case warn carries the depth notice.
func (c *compiler) shallowObject(name, spec string, warn *Issue) *fieldCompilation {
	fc := &fieldCompilation{name: name, declaredType: spec, category: catNested, nested: true}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		if _, ok := asObject(value); !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "object"})
		}
		res := fieldResult{value: value}
		if warn != nil {
			res.warns = Issues{*warn}
		}
		return res
	}
	return fc
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Description:
		return map[string]any(m), true
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// canonicalScalar renders a value for loose equality: numbers without a
// trailing ".0", booleans as words, null as "null".
func canonicalScalar(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case json.Number:
		return s.String()
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// splitArgs splits a constraint argument list on top-level commas, leaving
// /regex,with,commas/ intact.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	inRegex := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '/':
			if i == 0 || s[i-1] != '\\' {
				inRegex = !inRegex
			}
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 && !inRegex {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}
