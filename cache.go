package sekit

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
)

// ============================================================================
// Cache Interface
// ============================================================================

// Cache stores serialized operation results keyed by operation and path.
// It exists because storage elements answer metadata queries slowly; a
// warm cache turns repeated stats and listings of the same tree into
// local lookups.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found, nil and false otherwise.
	Get(key string) ([]byte, bool)

	// Set stores a value in the cache, replacing any existing entry.
	Set(key string, data []byte)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear() error
}

// CacheKey builds the canonical cache key for an operation on a path.
// Stray whitespace in the path is trimmed so that equivalent requests
// share an entry. The optional suffix distinguishes variants of the same
// operation, such as listings with and without stat information.
func CacheKey(op Op, path, suffix string) string {
	key := string(op) + "::" + strings.TrimSpace(path)
	if suffix != "" {
		key += "::" + suffix
	}
	return key
}

// ============================================================================
// In-Memory Cache Implementation
// ============================================================================

// MemoryCache is a simple in-memory cache. It is thread-safe and never
// expires entries; storage-element metadata for completed transfers is
// essentially immutable, so staleness is the caller's call (use Delete
// or Clear after writes).
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]byte),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, exists := c.entries[key]
	return data, exists
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

var _ Cache = (*MemoryCache)(nil)

// ============================================================================
// On-Disk Cache Implementation
// ============================================================================

// DiskCache persists entries as one file per key under a directory, so a
// session's cache survives the process and can be archived and shipped
// to another machine with Snapshot.
//
// File names are the xxhash of the key; keys contain '/' and '::' and
// cannot be used as file names directly.
type DiskCache struct {
	dir string
	mu  sync.RWMutex
}

// OpenDiskCache opens (creating if needed) an on-disk cache rooted at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) path(key string) string {
	sum := xxhash.Sum64String(key)
	return filepath.Join(c.dir, fmt.Sprintf("%016x.cache", sum))
}

// Get retrieves a value from the cache.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value in the cache. Write errors are swallowed; a cache
// that cannot persist degrades to a miss on the next Get.
func (c *DiskCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = os.WriteFile(c.path(key), data, 0o644)
}

// Delete removes a value from the cache.
func (c *DiskCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = os.Remove(c.path(key))
}

// Clear removes all values from the cache.
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cache") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

var _ Cache = (*DiskCache)(nil)

// ============================================================================
// Snapshots
// ============================================================================

// Snapshot archives the cache directory into a gzipped tarball at dst.
// The archive can be restored elsewhere with RestoreSnapshot, so the
// results of an expensive traversal can be inspected on a machine that
// has no grid credentials at all.
func (c *DiskCache) Snapshot(dst string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cache") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = entry.Name()
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return out.Close()
}

// RestoreSnapshot unpacks a cache snapshot created by Snapshot into dir
// and opens it as a DiskCache. Entries with path separators in their
// names are rejected.
func RestoreSnapshot(src, dir string) (*DiskCache, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		name := filepath.Base(hdr.Name)
		if name != hdr.Name || !strings.HasSuffix(name, ".cache") {
			return nil, fmt.Errorf("snapshot contains unexpected entry %q", hdr.Name)
		}
		out, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		// Entries are small metadata blobs; no decompression bomb guard
		// beyond the name check above.
		if _, err := io.Copy(out, tr); err != nil { //nolint:gosec
			out.Close()
			return nil, err
		}
		if err := out.Close(); err != nil {
			return nil, err
		}
	}
	return OpenDiskCache(dir)
}
