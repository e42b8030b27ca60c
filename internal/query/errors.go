package query

// ForbiddenStatementError rejects a statement before it reaches the engine.
type ForbiddenStatementError struct {
	Statement string
	Reason    string
}

func (e *ForbiddenStatementError) Error() string {
	return "statement rejected: " + e.Reason
}

// ExecutionError carries the engine's own message unchanged.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return "execution failed"
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }
