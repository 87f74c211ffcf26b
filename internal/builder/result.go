package builder

import (
	"time"
)

// BuildResult is the outcome of building one configuration
type BuildResult struct {
	// Index is the position of the configuration in the project
	Index       int
	PackageName string
	Success     bool
	// OutputPath is the linked package, set on success
	OutputPath string
	// Errors holds user-facing failure messages
	Errors []string
	// Err is the underlying error with its full cause chain
	Err      error
	Duration time.Duration

	// Compiled counts files passed to aapt2 compile
	Compiled int
	// Reused counts artifacts taken from a cache or a shared compile
	Reused int
	// Overrides counts resources replaced by a higher priority directory
	Overrides int
	// Missing lists resource directories that did not exist
	Missing []string
}

func (r *BuildResult) fail(err error) *BuildResult {
	r.Success = false
	r.Err = err
	r.Errors = append(r.Errors, err.Error())
	return r
}
