package fortress

// Result is the uniform value-time contract: every compiled validator
// returns one, never panics, for arbitrarily malformed data. Definition-time
// problems (a broken schema) surface as errors from Precompile instead.
type Result struct {
	OK bool
	// Data is the validated output: defaults applied and the unknown-field
	// policy enforced. It is nil when OK is false.
	Data     any
	Errors   Issues
	Warnings Issues
}

func okResult(data any, warnings Issues) Result {
	return Result{OK: true, Data: data, Warnings: warnings}
}

func failResult(errs Issues, warnings Issues) Result {
	return Result{OK: false, Errors: errs, Warnings: warnings}
}
