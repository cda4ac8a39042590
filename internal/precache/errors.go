package precache

import "fmt"

// ConfigurationError reports an option that failed validation. It is only
// returned while constructing a Plugin, before any build phase ran.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("invalid options: %s", e.Reason)
	}
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Reason)
}

// WorkerNotFoundError reports that the worker chunk had no output files when
// a phase needed them. Hosts surface it through their error or warning
// channel; it never aborts the rest of the build.
type WorkerNotFoundError struct {
	ChunkName string
	Phase     string
}

func (e *WorkerNotFoundError) Error() string {
	return fmt.Sprintf("%s: worker chunk %q produced no output files", e.Phase, e.ChunkName)
}
