package fortress

// UnknownPolicy controls how fields absent from the schema description are
// handled in validated output.
type UnknownPolicy int

const (
	UnknownStrict      UnknownPolicy = iota // Reject unknown fields with an error.
	UnknownStrip                            // Drop unknown fields from the output.
	UnknownPassthrough                      // Preserve unknown fields unchanged.
)

// Tier is the optimization tier selected for a compiled schema. Tiers govern
// how the assembled validator iterates fields, never which inputs it accepts.
type Tier int

const (
	TierNone Tier = iota
	TierBasic
	TierAggressive
	TierUltra
)

func (t Tier) String() string {
	switch t {
	case TierUltra:
		return "ULTRA"
	case TierAggressive:
		return "AGGRESSIVE"
	case TierBasic:
		return "BASIC"
	}
	return "NONE"
}

// Default depth limits applied when Options leaves them zero.
const (
	DefaultMaxNestingDepth     = 10
	DefaultMaxCompilationDepth = 10
)

// Options bundles engine configuration.
type Options struct {
	// MaxNestingDepth bounds conditional-expression nesting
	// (conditionals-within-conditionals). Exceeding it is a compile error.
	MaxNestingDepth int
	// MaxCompilationDepth bounds object-within-object schema nesting. At the
	// limit, deeper objects degrade to a shallow object check with a warning.
	MaxCompilationDepth int
	// StrictMode turns the permissive unknown-type fallback into a hard
	// compile error.
	StrictMode bool
	// UnknownFields selects the policy for fields not named by the schema.
	UnknownFields UnknownPolicy
}

func (o Options) withDefaults() Options {
	if o.MaxNestingDepth <= 0 {
		o.MaxNestingDepth = DefaultMaxNestingDepth
	}
	if o.MaxCompilationDepth <= 0 {
		o.MaxCompilationDepth = DefaultMaxCompilationDepth
	}
	return o
}

// Description is a declarative schema: field name to either a type string
// (per the type/conditional grammar) or a nested Description (which may also
// be written as a plain map[string]any, as document loaders produce).
type Description map[string]any
