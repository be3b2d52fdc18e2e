package sekit

import (
	"context"
)

// ============================================================================
// GuardedBackend Decorator
// ============================================================================

// GuardedBackend wraps a Backend so that every remove passes the safety
// gate before the underlying tool is invoked. All other operations pass
// through untouched.
//
// Sessions already gate their own Remove; this decorator is for code that
// hands a raw Backend to other components and still wants the gate to
// travel with it.
//
// Example:
//
//	guarded := sekit.NewGuardedBackend(backend, sekit.NewRemoveGuard())
//	err := guarded.Remove(ctx, "root://host//store/user/x", true)
//	// err wraps ErrRmSafety
type GuardedBackend struct {
	backend Backend
	guard   *RemoveGuard
}

// NewGuardedBackend wraps backend with guard. A nil guard means the
// default blacklist.
func NewGuardedBackend(backend Backend, guard *RemoveGuard) *GuardedBackend {
	if guard == nil {
		guard = NewRemoveGuard()
	}
	return &GuardedBackend{backend: backend, guard: guard}
}

func (g *GuardedBackend) Name() string         { return g.backend.Name() }
func (g *GuardedBackend) CheckInstalled() bool { return g.backend.CheckInstalled() }
func (g *GuardedBackend) Capabilities() OpSet  { return g.backend.Capabilities() }

func (g *GuardedBackend) Stat(ctx context.Context, path string) (*Inode, error) {
	return g.backend.Stat(ctx, path)
}

func (g *GuardedBackend) Listdir(ctx context.Context, dir string, withStat bool) ([]Inode, error) {
	return g.backend.Listdir(ctx, dir, withStat)
}

func (g *GuardedBackend) Copy(ctx context.Context, src, dst string, opts *CopyOptions) error {
	return g.backend.Copy(ctx, src, dst, opts)
}

// Remove runs the safety gate and only then delegates to the wrapped
// backend.
func (g *GuardedBackend) Remove(ctx context.Context, path string, recursive bool) error {
	if err := g.guard.Check(path); err != nil {
		return err
	}
	return g.backend.Remove(ctx, path, recursive)
}

func (g *GuardedBackend) Mkdir(ctx context.Context, path string) error {
	return g.backend.Mkdir(ctx, path)
}

func (g *GuardedBackend) Cat(ctx context.Context, path string) (string, error) {
	return g.backend.Cat(ctx, path)
}

var _ Backend = (*GuardedBackend)(nil)
