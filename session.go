package sekit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Session is the entry point for all storage-element interactions. It
// bundles the configuration, the optional result cache and the remove
// safety gate into one explicitly constructed object; there is no ambient
// global state to mutate, so concurrent sessions never interfere.
type Session struct {
	cfg    *Config
	cache  Cache
	guard  *RemoveGuard
	log    *zap.Logger
	pinned string
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithLogger attaches a logger to the session.
func WithLogger(log *zap.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// WithCache attaches a result cache to the session.
func WithCache(cache Cache) SessionOption {
	return func(s *Session) {
		s.cache = cache
	}
}

// WithGuard replaces the default remove safety gate.
func WithGuard(guard *RemoveGuard) SessionOption {
	return func(s *Session) {
		s.guard = guard
	}
}

// NewSession creates a session from cfg. A nil cfg loads the environment
// configuration. When cfg enables caching and no cache is supplied, an
// on-disk cache is opened under cfg.CacheDir.
func NewSession(cfg *Config, opts ...SessionOption) (*Session, error) {
	var err error
	if cfg == nil {
		cfg, err = GetConfig()
		if err != nil {
			return nil, err
		}
	}
	s := &Session{
		cfg:   cfg,
		guard: NewRemoveGuard(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil && cfg.CacheEnabled {
		s.cache, err = OpenDiskCache(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
	}
	return s, nil
}

// Using returns a copy of the session pinned to the named backend,
// bypassing the selection heuristic. The safety gate still applies.
func (s *Session) Using(backend string) *Session {
	pinned := *s
	pinned.pinned = backend
	return &pinned
}

// Config returns the session configuration.
func (s *Session) Config() *Config {
	return s.cfg
}

// Cache returns the session cache, or nil when caching is disabled.
func (s *Session) Cache() Cache {
	return s.cache
}

// Format normalizes path, substituting the session's default server when
// the path carries no protocol. The default is a fallback only; a path
// with an embedded server never conflicts with it.
func (s *Session) Format(path string) (string, error) {
	if HasProtocol(path) || IsSSH(path) {
		return Format(path, "")
	}
	return Format(path, s.cfg.DefaultServer)
}

// Protocol returns the protocol token of the formatted path.
func (s *Session) Protocol(path string) (string, error) {
	formatted, err := s.Format(path)
	if err != nil {
		return "", err
	}
	protocol, _, _ := strings.Cut(formatted, "://")
	return protocol, nil
}

// ============================================================================
// Operations
// ============================================================================

// Stat returns the inode for path. Results are cached when the session
// has a cache.
func (s *Session) Stat(ctx context.Context, path string) (*Inode, error) {
	p, err := s.Format(path)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		key := CacheKey(OpStat, p, "")
		if data, ok := s.cache.Get(key); ok {
			var inode Inode
			if err := sonic.Unmarshal(data, &inode); err == nil {
				s.log.Debug("using cached stat", zap.String("path", p))
				return &inode, nil
			}
		}
		inode, err := s.statUncached(ctx, p)
		if err != nil {
			return nil, err
		}
		if data, err := sonic.Marshal(inode); err == nil {
			s.cache.Set(key, data)
		}
		return inode, nil
	}
	return s.statUncached(ctx, p)
}

func (s *Session) statUncached(ctx context.Context, path string) (*Inode, error) {
	b, err := s.best(OpStat, path)
	if err != nil {
		return nil, err
	}
	return b.Stat(ctx, path)
}

// Exists reports whether path exists.
func (s *Session) Exists(ctx context.Context, path string) (bool, error) {
	kind, err := s.IsFileOrDir(ctx, path)
	return kind != KindAbsent, err
}

// IsDir reports whether path is a directory. A missing path is false.
func (s *Session) IsDir(ctx context.Context, path string) (bool, error) {
	kind, err := s.IsFileOrDir(ctx, path)
	return kind == KindDirectory, err
}

// IsFile reports whether path is a regular file. A missing path is false.
func (s *Session) IsFile(ctx context.Context, path string) (bool, error) {
	kind, err := s.IsFileOrDir(ctx, path)
	return kind == KindFile, err
}

// IsFileOrDir classifies path in a single stat round trip: absent,
// directory or file. Absence is a value, not an error.
func (s *Session) IsFileOrDir(ctx context.Context, path string) (PathKind, error) {
	inode, err := s.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNoSuchPath) {
			return KindAbsent, nil
		}
		return KindAbsent, err
	}
	if inode.IsDir {
		return KindDirectory, nil
	}
	return KindFile, nil
}

// Listdir returns the contents of a directory. It fails with ErrNotDir if
// dir is not a directory. Results are cached when the session has a cache.
func (s *Session) Listdir(ctx context.Context, dir string, withStat bool) ([]Inode, error) {
	p, err := s.Format(dir)
	if err != nil {
		return nil, err
	}
	isdir, err := s.IsDir(ctx, p)
	if err != nil {
		return nil, err
	}
	if !isdir {
		return nil, &PathError{Op: "listdir", Path: p, Err: ErrNotDir}
	}
	return s.listdirAssume(ctx, p, withStat)
}

// listdirAssume lists a directory without probing it first.
func (s *Session) listdirAssume(ctx context.Context, dir string, withStat bool) ([]Inode, error) {
	if s.cache != nil {
		key := CacheKey(OpListdir, dir, fmt.Sprintf("stat%v", withStat))
		if data, ok := s.cache.Get(key); ok {
			var contents []Inode
			if err := sonic.Unmarshal(data, &contents); err == nil {
				s.log.Debug("using cached listing", zap.String("path", dir))
				return contents, nil
			}
		}
		contents, err := s.listdirBackend(ctx, dir, withStat)
		if err != nil {
			return nil, err
		}
		if data, err := sonic.Marshal(contents); err == nil {
			s.cache.Set(key, data)
		}
		return contents, nil
	}
	return s.listdirBackend(ctx, dir, withStat)
}

func (s *Session) listdirBackend(ctx context.Context, dir string, withStat bool) ([]Inode, error) {
	b, err := s.best(OpListdir, dir)
	if err != nil {
		return nil, err
	}
	return b.Listdir(ctx, dir, withStat)
}

// Mkdir creates a directory on the storage element, parents included.
// It does not fail if the directory already exists.
func (s *Session) Mkdir(ctx context.Context, path string) error {
	p, err := s.Format(path)
	if err != nil {
		return err
	}
	b, err := s.best(OpMkdir, p)
	if err != nil {
		return err
	}
	s.log.Warn("creating directory on storage element", zap.String("path", p))
	return b.Mkdir(ctx, p)
}

// Remove deletes a path. The safety gate runs before any backend is
// invoked; directories require recursive=true.
func (s *Session) Remove(ctx context.Context, path string, recursive bool) error {
	p, err := s.Format(path)
	if err != nil {
		return err
	}
	if err := s.guard.Check(p); err != nil {
		return err
	}
	b, err := s.best(OpRemove, p)
	if err != nil {
		return err
	}
	s.log.Warn("removing path on storage element", zap.String("path", p))
	return b.Remove(ctx, p, recursive)
}

// Copy copies src to dst; either side may be local. The backend is chosen
// by the remote side of the transfer.
func (s *Session) Copy(ctx context.Context, src, dst string, opts ...CopyOption) error {
	options := DefaultCopyOptions()
	options.Attempts = s.cfg.CopyAttempts
	for _, opt := range opts {
		opt(options)
	}
	remote := src
	if HasProtocol(dst) {
		remote = dst
	}
	b, err := s.best(OpCopy, remote)
	if err != nil {
		return err
	}
	s.log.Warn("copying", zap.String("src", src), zap.String("dst", dst))
	return b.Copy(ctx, src, dst, options)
}

// Cat returns the contents of a remote file.
func (s *Session) Cat(ctx context.Context, path string) (string, error) {
	p, err := s.Format(path)
	if err != nil {
		return "", err
	}
	b, err := s.best(OpCat, p)
	if err != nil {
		return "", err
	}
	return b.Cat(ctx, p)
}

// Put creates a file with the given contents on the storage element by
// staging it through a local temporary file. The path must be remote.
func (s *Session) Put(ctx context.Context, path, contents string, opts ...CopyOption) error {
	p, err := Normpath(path)
	if err != nil {
		return err
	}
	if !HasProtocol(p) {
		return &PathError{Op: "put", Path: p, Err: ErrRemoteRequired}
	}
	tmp, err := os.CreateTemp("", "sekit-put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return s.Copy(ctx, tmpPath, p, opts...)
}

// ============================================================================
// Global instance
// ============================================================================

var (
	defaultSession *Session
	defaultOnce    sync.Once
	defaultErr     error
)

// Init initializes the global session. Without arguments the environment
// configuration is used.
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		}
		defaultSession, defaultErr = NewSession(cfg)
	})
	return defaultErr
}

// Default returns the global session, initializing it if necessary.
func Default() (*Session, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultSession, nil
}
