package pipeline

// Warning records an advisory-stage failure that did not stop the run.
type Warning struct {
	Stage string
	Err   error
}

// Result aggregates the outcome of a chain execution.
type Result struct {
	// State holds the terminal status of every stage.
	State ChainState

	// Order lists the stages that actually ran, in execution order.
	Order []string

	// FailedStage names the fatally failed stage, if any.
	FailedStage string

	// Err is the error from the fatally failed stage, if any.
	Err error

	// Warnings collects advisory failures in stage order.
	Warnings []Warning
}

// Succeeded reports whether the run completed without a fatal failure.
// Advisory warnings do not affect success.
func (r *Result) Succeeded() bool {
	return r != nil && r.FailedStage == ""
}
