package fortress

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Engine owns the two process-lifetime caches (compiled schemas and union
// entries) and the configuration they were built under. All cache state is
// confined here; there are no package-level globals.
//
// Concurrency: the mutex protects cache lookups and stores only. Compilation
// itself runs outside the lock, so two goroutines racing on the same new
// schema may both compile it; the results are equivalent and the second
// store wins wholesale, which keeps entries never torn.
type Engine struct {
	opts    Options
	mu      sync.Mutex
	schemas map[string]*compiledSchema
	unions  map[string]*UnionEntry
}

// New returns an Engine using opts (zero depth limits get defaults).
func New(opts Options) *Engine {
	return &Engine{
		opts:    opts.withDefaults(),
		schemas: make(map[string]*compiledSchema),
		unions:  make(map[string]*UnionEntry),
	}
}

// Options returns the effective engine configuration.
func (e *Engine) Options() Options { return e.opts }

// compiledSchema is the cached compilation artifact for one schema
// signature. It is never mutated after creation, only looked up or replaced
// wholesale.
type compiledSchema struct {
	fields     []*fieldCompilation
	validate   func(any) Result
	tier       Tier
	compiledAt time.Time
	canonical  string
	signature  string
}

// Validator is a compiled schema validator returned by Precompile.
type Validator struct {
	cs *compiledSchema
}

// Validate checks data against the compiled schema. It never panics on
// malformed data; failures land in the returned Result.
func (v *Validator) Validate(data any) Result { return v.cs.validate(data) }

// Tier reports the optimization tier the schema compiled to.
func (v *Validator) Tier() Tier { return v.cs.tier }

// CompiledAt reports when this compilation was produced.
func (v *Validator) CompiledAt() time.Time { return v.cs.compiledAt }

// Signature is the schema's cache signature (a content hash rendered as
// hex). The cache itself keys on the full canonical form, so equal
// signatures can never alias distinct schemas.
func (v *Validator) Signature() string { return v.cs.signature }

// ValidateJSON decompiles raw JSON bytes and validates them against desc,
// compiling (or reusing) the schema validator as needed.
func (e *Engine) ValidateJSON(desc Description, data []byte) (Result, error) {
	v, err := e.Precompile(desc)
	if err != nil {
		return Result{}, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return failResult(Issues{{Path: "/", Code: CodeInvalidType, Message: "invalid JSON: " + err.Error()}}, nil), nil
	}
	return v.Validate(doc), nil
}

// CacheStats is a snapshot of cache occupancy, for long-running hosts that
// need to watch memory and for test isolation checks.
type CacheStats struct {
	CompiledSchemas int
	UnionEntries    int
}

// CacheStats reports current cache sizes.
func (e *Engine) CacheStats() CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CacheStats{CompiledSchemas: len(e.schemas), UnionEntries: len(e.unions)}
}

// ClearCaches drops all compiled schemas and union entries.
func (e *Engine) ClearCaches() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemas = make(map[string]*compiledSchema)
	e.unions = make(map[string]*UnionEntry)
}

func (e *Engine) lookupSchema(canonical string) (*compiledSchema, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cs, ok := e.schemas[canonical]
	return cs, ok
}

func (e *Engine) storeSchema(cs *compiledSchema) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemas[cs.canonical] = cs
}
