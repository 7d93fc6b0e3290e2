package cli

// ExitError carries a process exit code through the command stack. Printed
// marks errors already rendered to the user, so main does not repeat them.
type ExitError struct {
	Err     error
	Code    int
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
