package program

import (
	"errors"
	"fmt"
)

// Common program construction errors
var (
	// ErrInvalidPattern indicates the regex pattern is invalid or unsupported
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrTooComplex indicates the pattern expands past the instruction limit
	ErrTooComplex = errors.New("pattern too complex")

	// ErrInvalidConfig indicates invalid compiler configuration was provided
	ErrInvalidConfig = errors.New("invalid compiler configuration")

	// ErrNoPatterns indicates an empty pattern set was given to CompileSet
	ErrNoPatterns = errors.New("pattern set is empty")
)

// CompileError wraps compilation errors with the offending pattern.
type CompileError struct {
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *CompileError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("program compilation failed for pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("program compilation failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *CompileError) Unwrap() error {
	return e.Err
}

// BuildError represents an invalid program detected by the Builder.
type BuildError struct {
	Message string
	Ip      InstPtr
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Ip != InvalidInst {
		return fmt.Sprintf("program build error at instruction %d: %s", e.Ip, e.Message)
	}
	return fmt.Sprintf("program build error: %s", e.Message)
}
