package fortress

import (
	"reflect"
	"sort"
	"time"

	"github.com/fortress-schema/fortress/i18n"
)

// Tier selection thresholds: field count and complexity score.
const (
	ultraMaxFields      = 5
	ultraMaxScore       = 10
	aggressiveMaxFields = 15
	aggressiveMaxScore  = 30
	basicMaxFields      = 50
)

// compiler carries the per-invocation state of one Precompile call. Depth
// and the in-flight set are scoped here, never on the Engine, so unrelated
// concurrent compilations cannot trip each other's recursion guards.
type compiler struct {
	eng      *Engine
	opts     Options
	inFlight map[uintptr]struct{}
}

// Precompile analyzes desc and compiles it into a single specialized
// validator, reusing the cached compilation when the schema signature has
// been seen before. A malformed schema (parse errors, nesting too deep,
// circular references) is a definition-time failure returned as Issues.
func (e *Engine) Precompile(desc Description) (*Validator, error) {
	canonical, err := canonicalForm(desc, e.opts)
	if err != nil {
		return nil, Issues{{Path: "/", Code: CodeInvalidSchema, Message: err.Error(), Position: -1}}
	}
	if cs, ok := e.lookupSchema(canonical); ok {
		return &Validator{cs: cs}, nil
	}
	c := &compiler{eng: e, opts: e.opts, inFlight: make(map[uintptr]struct{})}
	cs, cerr := c.compileObject(desc, 1)
	if cerr != nil {
		return nil, cerr
	}
	cs.canonical = canonical
	cs.signature = signatureOf(canonical)
	e.storeSchema(cs)
	return &Validator{cs: cs}, nil
}

// MustPrecompile is Precompile for statically known schemas; it panics on a
// schema definition error.
func (e *Engine) MustPrecompile(desc Description) *Validator {
	v, err := e.Precompile(desc)
	if err != nil {
		panic(err)
	}
	return v
}

func descPtr(d Description) uintptr {
	return reflect.ValueOf(map[string]any(d)).Pointer()
}

// compileObject compiles one object level: guards, per-field compilation,
// tier selection, and validator assembly.
func (c *compiler) compileObject(desc Description, depth int) (*compiledSchema, error) {
	ptr := descPtr(desc)
	if _, busy := c.inFlight[ptr]; busy {
		return nil, Issues{{Path: "/", Code: CodeCircularSchema, Message: "schema references itself", Position: -1}}
	}
	c.inFlight[ptr] = struct{}{}
	defer delete(c.inFlight, ptr)

	keys := make([]string, 0, len(desc))
	for k := range desc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]*fieldCompilation, 0, len(keys))
	for _, k := range keys {
		fc, err := c.compileField(k, desc[k], depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fc)
	}

	tier := selectTier(fields)
	cs := &compiledSchema{
		fields:     fields,
		tier:       tier,
		compiledAt: time.Now(),
	}
	cs.validate = c.assemble(fields, tier)
	return cs, nil
}

func (c *compiler) compileField(name string, v any, depth int) (*fieldCompilation, error) {
	if s, ok := v.(string); ok {
		return c.compileType(name, s)
	}
	nested, ok := asDescription(v)
	if !ok {
		return nil, Issues{{
			Path: "/" + name, Code: CodeInvalidSchema, Position: -1,
			Message: "schema values must be type strings or nested objects",
		}}
	}
	if depth+1 > c.opts.MaxCompilationDepth {
		// Warn-rather-than-fail at extreme depth: a DoS guard, not a
		// correctness guarantee for deeper content.
		warn := Issue{
			Path: "/" + name, Code: CodeDepthExceeded, Position: -1,
			Message: "object nesting reached the compilation depth limit; contents pass with a shallow object check",
		}
		return c.shallowObject(name, "object", &warn), nil
	}
	sub, err := c.compileObject(nested, depth+1)
	if err != nil {
		if iss, ok := AsIssues(err); ok {
			return nil, rebase("/"+name, iss)
		}
		return nil, err
	}
	fc := &fieldCompilation{name: name, declaredType: "object", category: catNested, nested: true}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		obj, ok := asObject(value)
		if !ok {
			return failField(name, CodeInvalidType, map[string]any{"expected": "object"})
		}
		r := sub.validate(obj)
		res := fieldResult{warns: rebase("/"+name, r.Warnings)}
		if !r.OK {
			res.errs = rebase("/"+name, r.Errors)
			return res
		}
		res.value = r.Data
		return res
	}
	return fc, nil
}

// complexityScore weights the field mix: unions and arrays cost a little,
// conditionals more, nested objects the most.
func complexityScore(fields []*fieldCompilation) int {
	score := 0
	for _, f := range fields {
		switch {
		case f.nested:
			score += 10
		case f.conditional:
			score += 5
		case f.union:
			score += 2
		case f.array:
			score += 2
		}
		if f.constrained {
			score++
		}
	}
	return score
}

// selectTier picks the validator assembly strategy. Tiers change execution
// shape only; every tier accepts and rejects exactly the same inputs.
func selectTier(fields []*fieldCompilation) Tier {
	n := len(fields)
	score := complexityScore(fields)
	switch {
	case n <= ultraMaxFields && score <= ultraMaxScore:
		return TierUltra
	case n <= aggressiveMaxFields && score <= aggressiveMaxScore:
		return TierAggressive
	case n <= basicMaxFields:
		return TierBasic
	}
	return TierNone
}

// assemble builds the single validator closure over the compiled fields.
// ULTRA partitions fields by category and runs each category in a fixed
// order for locality; the other tiers run fields in key order.
func (c *compiler) assemble(fields []*fieldCompilation, tier Tier) func(any) Result {
	ordered := fields
	if tier == TierUltra {
		ordered = make([]*fieldCompilation, 0, len(fields))
		for _, cat := range []fieldCategory{catSimple, catUnion, catArray, catNested} {
			for _, f := range fields {
				if f.category == cat {
					ordered = append(ordered, f)
				}
			}
		}
	}
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.name] = struct{}{}
	}
	unknownPolicy := c.opts.UnknownFields

	return func(data any) Result {
		obj, ok := asObject(data)
		if !ok {
			return failResult(Issues{{
				Path: "/", Code: CodeInvalidType, Position: -1,
				Message: i18n.T(CodeInvalidType, nil), Hint: "expected object",
			}}, nil)
		}
		out := make(map[string]any, len(obj))
		var errs, warns Issues
		for _, f := range ordered {
			v, present := obj[f.name]
			r := f.fn(obj, v, present)
			errs = append(errs, r.errs...)
			warns = append(warns, r.warns...)
			if len(r.errs) == 0 && !r.omit {
				out[f.name] = r.value
			}
		}
		if extras := unknownKeys(obj, known); len(extras) > 0 {
			switch unknownPolicy {
			case UnknownStrict:
				for _, k := range extras {
					errs = AppendIssues(errs, Issue{
						Path: "/" + k, Code: CodeUnknownKey, Position: -1,
						Message: i18n.T(CodeUnknownKey, map[string]string{"key": k}),
					})
				}
			case UnknownPassthrough:
				for _, k := range extras {
					out[k] = obj[k]
				}
			}
			// UnknownStrip: dropped silently
		}
		if len(errs) > 0 {
			return failResult(errs, warns)
		}
		return okResult(out, warns)
	}
}

func unknownKeys(obj map[string]any, known map[string]struct{}) []string {
	var extras []string
	for k := range obj {
		if _, ok := known[k]; !ok {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return extras
}
