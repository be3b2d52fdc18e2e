package sekit

import (
	"fmt"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// ============================================================================
// Backend selection
// ============================================================================
//
// Different tools have different capability quirks — only eos can delete a
// directory tree recursively, gfal tends to behave better than xrdfs on
// root:// endpoints for metadata queries, and ssh-style paths can only be
// served by the ssh backend. The priority orders below encode those quirks
// and are part of the package contract; do not reorder them.

var (
	removeOrder  = []string{BackendEos, BackendGfal, BackendPyxrd, BackendXrd}
	rootOrder    = []string{BackendGfal, BackendPyxrd, BackendXrd, BackendEos}
	defaultOrder = []string{BackendPyxrd, BackendXrd, BackendGfal, BackendEos}
)

// best picks the backend that serves op, optionally informed by the path
// shape. It is deterministic and side-effect free over (op, protocol,
// path shape); the only state consulted is the registry's memoized
// installation checks.
func (s *Session) best(op Op, path string) (Backend, error) {
	if s.pinned != "" {
		b, err := GetBackend(s.pinned)
		if err != nil {
			return nil, err
		}
		if !b.Capabilities().Has(op) {
			return nil, &PathError{Op: string(op), Path: path, Err: ErrNotSupported}
		}
		return b, nil
	}

	var order []string
	switch {
	case path != "" && IsSSH(path):
		s.log.Debug("path is ssh-like", zap.String("path", path))
		order = []string{BackendSSH}
	case op == OpRemove:
		order = removeOrder
	default:
		order = defaultOrder
		if path != "" {
			protocol, err := s.Protocol(path)
			if err != nil {
				return nil, err
			}
			if protocol == "root" {
				order = rootOrder
			}
		}
	}

	for _, name := range order {
		entry, exists := lookupBackend(name)
		if !exists {
			continue
		}
		if entry.Installed() && entry.backend.Capabilities().Has(op) {
			s.log.Debug("selected backend",
				zap.String("backend", name),
				zap.String("op", string(op)),
				zap.String("path", path))
			return entry.backend, nil
		}
	}
	return nil, fmt.Errorf("%w for op %s, path %q", ErrNoBackend, op, path)
}

// ============================================================================
// Selector
// ============================================================================

// Selector filters inodes during recursive listing operations.
//
// Match decides whether an entry is included in results; Descend decides
// whether a directory's descendants are traversed at all, which lets deep
// subtrees be skipped without listing them.
type Selector interface {
	Match(inode *Inode) bool
	Descend(inode *Inode) bool
}

// AllSelector matches every entry and descends into every directory.
type AllSelector struct{}

func (AllSelector) Match(*Inode) bool   { return true }
func (AllSelector) Descend(*Inode) bool { return true }

// All returns a selector that matches all entries.
func All() Selector {
	return AllSelector{}
}

type globSelector struct {
	g glob.Glob
}

// Glob creates a selector matching basenames against a glob pattern.
// Supports *, ?, [abc] and [a-z]. Returns an error for malformed patterns.
func Glob(pattern string) (Selector, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return &globSelector{g: g}, nil
}

func (s *globSelector) Match(inode *Inode) bool {
	return s.g.Match(inode.Basename())
}

func (s *globSelector) Descend(*Inode) bool { return true }

type funcSelector struct {
	matchFn   func(*Inode) bool
	descendFn func(*Inode) bool
}

// SelectorFunc creates a selector from a match function; all directories
// are descended into.
func SelectorFunc(fn func(*Inode) bool) Selector {
	return &funcSelector{
		matchFn:   fn,
		descendFn: func(*Inode) bool { return true },
	}
}

// SelectorFuncFull creates a selector with custom match and descend
// functions.
func SelectorFuncFull(matchFn, descendFn func(*Inode) bool) Selector {
	return &funcSelector{matchFn: matchFn, descendFn: descendFn}
}

func (s *funcSelector) Match(inode *Inode) bool   { return s.matchFn(inode) }
func (s *funcSelector) Descend(inode *Inode) bool { return s.descendFn(inode) }

type andSelector struct {
	selectors []Selector
}

// And matches only if all selectors match; a directory is descended into
// if any selector wants its descendants.
func And(selectors ...Selector) Selector {
	return &andSelector{selectors: selectors}
}

func (s *andSelector) Match(inode *Inode) bool {
	for _, sel := range s.selectors {
		if !sel.Match(inode) {
			return false
		}
	}
	return true
}

func (s *andSelector) Descend(inode *Inode) bool {
	for _, sel := range s.selectors {
		if sel.Descend(inode) {
			return true
		}
	}
	return false
}
