package sekit

import (
	"context"
)

// ============================================================================
// Backend Capability Interface
// ============================================================================

// Op names one primitive operation a backend may implement.
type Op string

const (
	OpStat    Op = "stat"
	OpListdir Op = "listdir"
	OpCopy    Op = "cp"
	OpRemove  Op = "rm"
	OpMkdir   Op = "mkdir"
	OpCat     Op = "cat"
)

// OpSet is a static capability table: the set of operations a backend
// actually implements. It is consulted at selection time, so a backend
// missing an operation is simply skipped rather than called.
type OpSet map[Op]bool

// Ops builds an OpSet from a list of operations.
func Ops(ops ...Op) OpSet {
	s := make(OpSet, len(ops))
	for _, op := range ops {
		s[op] = true
	}
	return s
}

// AllOps returns the full capability set.
func AllOps() OpSet {
	return Ops(OpStat, OpListdir, OpCopy, OpRemove, OpMkdir, OpCat)
}

// Has reports whether the set contains op.
func (s OpSet) Has(op Op) bool {
	return s[op]
}

// Backend is the contract every protocol-tool adapter implements.
//
// All paths passed to a backend are formatted remote paths (or ssh-style
// paths for the ssh backend). Operations are blocking round trips; failures
// arrive as *PathError wrapping one of the sentinel error kinds.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// CheckInstalled reports whether the underlying tool is usable.
	// The result is memoized by the registry for the process lifetime.
	CheckInstalled() bool

	// Capabilities returns the static table of implemented operations.
	Capabilities() OpSet

	// Stat returns the inode for path.
	Stat(ctx context.Context, path string) (*Inode, error)

	// Listdir lists the contents of a directory. When withStat is false
	// the returned inodes carry only their Path.
	Listdir(ctx context.Context, dir string, withStat bool) ([]Inode, error)

	// Copy copies src to dst. Either side may be local.
	Copy(ctx context.Context, src, dst string, opts *CopyOptions) error

	// Remove deletes a path. Directories require recursive=true.
	Remove(ctx context.Context, path string, recursive bool) error

	// Mkdir creates a directory, parents included. No error if it exists.
	Mkdir(ctx context.Context, path string) error

	// Cat returns the contents of a file.
	Cat(ctx context.Context, path string) (string, error)
}

// PathKind classifies the result of a stat-based existence probe.
type PathKind int

const (
	KindAbsent PathKind = iota
	KindDirectory
	KindFile
)

// ============================================================================
// PlaceholderBackend
// ============================================================================

// PlaceholderBackend reserves a registry slot for a backend that has no
// implementation yet. It is never installed and exposes no operations, so
// the selector always skips it.
type PlaceholderBackend struct {
	BackendName string
}

func (p PlaceholderBackend) Name() string         { return p.BackendName }
func (p PlaceholderBackend) CheckInstalled() bool { return false }
func (p PlaceholderBackend) Capabilities() OpSet  { return OpSet{} }

func (p PlaceholderBackend) Stat(ctx context.Context, path string) (*Inode, error) {
	return nil, &PathError{Op: "stat", Path: path, Err: ErrNotSupported}
}

func (p PlaceholderBackend) Listdir(ctx context.Context, dir string, withStat bool) ([]Inode, error) {
	return nil, &PathError{Op: "listdir", Path: dir, Err: ErrNotSupported}
}

func (p PlaceholderBackend) Copy(ctx context.Context, src, dst string, opts *CopyOptions) error {
	return &PathError{Op: "cp", Path: src, Err: ErrNotSupported}
}

func (p PlaceholderBackend) Remove(ctx context.Context, path string, recursive bool) error {
	return &PathError{Op: "rm", Path: path, Err: ErrNotSupported}
}

func (p PlaceholderBackend) Mkdir(ctx context.Context, path string) error {
	return &PathError{Op: "mkdir", Path: path, Err: ErrNotSupported}
}

func (p PlaceholderBackend) Cat(ctx context.Context, path string) (string, error) {
	return "", &PathError{Op: "cat", Path: path, Err: ErrNotSupported}
}

var _ Backend = PlaceholderBackend{}
