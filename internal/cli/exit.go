package cli

// Semantic exit codes. Fatal stage failures map to ExitBootstrapFailure so
// callers can distinguish "the environment could not be provisioned" from
// misuse of the tool itself.
const (
	ExitSuccess           = 0
	ExitBootstrapFailure  = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)
