package sekit

import (
	"errors"
	"fmt"
)

// Error kinds produced by backend operations and the core model.
//
// The first three are mapped from tool-specific exit codes by the drivers
// and always arrive wrapped in a *PathError. The remaining kinds are local
// precondition failures and fail fast with no recovery attempt.
var (
	ErrNoSuchPath      = errors.New("no such path")
	ErrPermission      = errors.New("permission denied")
	ErrHostUnreachable = errors.New("host unreachable")

	ErrFormat         = errors.New("malformed storage path")
	ErrConflict       = errors.New("conflicting servers")
	ErrNoServer       = errors.New("no server in path and no default server configured")
	ErrRmSafety       = errors.New("rm operation attempted on unsafe path")
	ErrRemoteRequired = errors.New("remote operation attempted on local path")
	ErrNoBackend      = errors.New("no installed backend available")
	ErrWalkBudget     = errors.New("walk exceeded its request budget")
	ErrNotDir         = errors.New("not a directory")
	ErrNotRecursive   = errors.New("path is a directory but removal is not recursive")
	ErrNotSupported   = errors.New("operation not supported")
)

// PathError records an error and the operation and path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNoSuchPath reports whether an error indicates that a path does not
// exist on the storage element
func IsNoSuchPath(err error) bool {
	return errors.Is(err, ErrNoSuchPath)
}

// IsPermission reports whether an error indicates that permission is denied
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsHostUnreachable reports whether an error indicates that the storage
// element could not be reached
func IsHostUnreachable(err error) bool {
	return errors.Is(err, ErrHostUnreachable)
}

// IsRmSafety reports whether an error was raised by the remove safety gate
func IsRmSafety(err error) bool {
	return errors.Is(err, ErrRmSafety)
}
