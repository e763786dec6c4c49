package models

// ProcessResult is the outcome of running an external executable.
// Every failure mode is encoded here; executors never return an error.
type ProcessResult struct {
	Success  bool
	ExitCode int // -1 when the process could not be started
	Stdout   string
	Stderr   string
	Error    string // spawn or wait error message, empty on success
}

// Output returns stderr, falling back to the spawn error when the process produced none.
func (r ProcessResult) Output() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Error
}
