// Package memory provides an in-memory storage element registered under
// the name "fake". It backs tests and the CLI's --fake mode, where
// commands run against a seeded toy tree instead of a real grid
// endpoint.
package memory

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gobeaver/sekit"
)

type entry struct {
	data    []byte
	modTime time.Time
	isDir   bool
}

// Backend is an in-memory storage element. Paths are full canonical
// remote paths, e.g. "root://fake.se//store/user/test/file.root"; the
// server part is arbitrary but must be consistent between seeding and
// lookups.
type Backend struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty in-memory storage element.
func New() *Backend {
	return &Backend{entries: make(map[string]*entry)}
}

func (b *Backend) Name() string { return sekit.BackendFake }

func (b *Backend) CheckInstalled() bool { return true }

func (b *Backend) Capabilities() sekit.OpSet {
	return sekit.AllOps()
}

// PutFile seeds a file, creating parent directories as needed.
func (b *Backend) PutFile(path string, contents []byte, modTime time.Time) error {
	p, err := sekit.Normpath(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.mkdirParents(p, modTime); err != nil {
		return err
	}
	b.entries[p] = &entry{data: contents, modTime: modTime}
	return nil
}

// mkdirParents creates all missing parents of p. Callers hold the lock.
func (b *Backend) mkdirParents(p string, modTime time.Time) error {
	parents, err := sekit.ParentDirs(p)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		if _, exists := b.entries[parent]; !exists {
			b.entries[parent] = &entry{modTime: modTime, isDir: true}
		}
	}
	return nil
}

func (b *Backend) Stat(ctx context.Context, path string) (*sekit.Inode, error) {
	p, err := sekit.Normpath(path)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, exists := b.entries[p]
	if !exists {
		return nil, &sekit.PathError{Op: "stat", Path: p, Err: sekit.ErrNoSuchPath}
	}
	return &sekit.Inode{
		Path:    p,
		ModTime: e.modTime,
		IsDir:   e.isDir,
		Size:    int64(len(e.data)),
	}, nil
}

func (b *Backend) Listdir(ctx context.Context, dir string, withStat bool) ([]sekit.Inode, error) {
	p, err := sekit.Normpath(dir)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, exists := b.entries[p]
	if !exists {
		return nil, &sekit.PathError{Op: "listdir", Path: p, Err: sekit.ErrNoSuchPath}
	}
	if !e.isDir {
		return nil, &sekit.PathError{Op: "listdir", Path: p, Err: sekit.ErrNotDir}
	}

	var contents []sekit.Inode
	for path, child := range b.entries {
		if path == p {
			continue
		}
		parent, err := sekit.Dirname(path)
		if err != nil || parent != p {
			continue
		}
		if withStat {
			contents = append(contents, sekit.Inode{
				Path:    path,
				ModTime: child.modTime,
				IsDir:   child.isDir,
				Size:    int64(len(child.data)),
			})
		} else {
			contents = append(contents, sekit.Inode{Path: path})
		}
	}
	return contents, nil
}

// Copy moves bytes between the fake element and the local filesystem, or
// within the fake element.
func (b *Backend) Copy(ctx context.Context, src, dst string, opts *sekit.CopyOptions) error {
	if opts == nil {
		opts = sekit.DefaultCopyOptions()
	}
	srcRemote := sekit.HasProtocol(src)
	dstRemote := sekit.HasProtocol(dst)

	var data []byte
	var modTime time.Time
	if srcRemote {
		inode, err := b.Stat(ctx, src)
		if err != nil {
			return err
		}
		if inode.IsDir {
			return &sekit.PathError{Op: "cp", Path: src, Err: sekit.ErrNotSupported}
		}
		b.mu.RLock()
		p, _ := sekit.Normpath(src)
		data = b.entries[p].data
		modTime = b.entries[p].modTime
		b.mu.RUnlock()
	} else {
		var err error
		data, err = os.ReadFile(src)
		if err != nil {
			return &sekit.PathError{Op: "cp", Path: src, Err: err}
		}
		modTime = time.Now()
	}

	if dstRemote {
		if !opts.Force {
			if _, err := b.Stat(ctx, dst); err == nil {
				return &sekit.PathError{Op: "cp", Path: dst, Err: os.ErrExist}
			}
		}
		return b.PutFile(dst, data, modTime)
	}
	if !opts.Force {
		if _, err := os.Stat(dst); err == nil {
			return &sekit.PathError{Op: "cp", Path: dst, Err: os.ErrExist}
		}
	}
	return os.WriteFile(dst, data, 0o644)
}

func (b *Backend) Remove(ctx context.Context, path string, recursive bool) error {
	p, err := sekit.Normpath(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, exists := b.entries[p]
	if !exists {
		return &sekit.PathError{Op: "rm", Path: p, Err: sekit.ErrNoSuchPath}
	}
	if !e.isDir {
		delete(b.entries, p)
		return nil
	}
	if !recursive {
		return &sekit.PathError{Op: "rm", Path: p, Err: sekit.ErrNotRecursive}
	}
	prefix := p + "/"
	for path := range b.entries {
		if path == p || len(path) > len(prefix) && path[:len(prefix)] == prefix {
			delete(b.entries, path)
		}
	}
	return nil
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	p, err := sekit.Normpath(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, exists := b.entries[p]; exists {
		if !e.isDir {
			return &sekit.PathError{Op: "mkdir", Path: p, Err: sekit.ErrNotDir}
		}
		return nil
	}
	now := time.Now()
	if err := b.mkdirParents(p, now); err != nil {
		return err
	}
	b.entries[p] = &entry{modTime: now, isDir: true}
	return nil
}

func (b *Backend) Cat(ctx context.Context, path string) (string, error) {
	p, err := sekit.Normpath(path)
	if err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, exists := b.entries[p]
	if !exists {
		return "", &sekit.PathError{Op: "cat", Path: p, Err: sekit.ErrNoSuchPath}
	}
	if e.isDir {
		return "", &sekit.PathError{Op: "cat", Path: p, Err: sekit.ErrNotSupported}
	}
	return string(e.data), nil
}

var _ sekit.Backend = (*Backend)(nil)
