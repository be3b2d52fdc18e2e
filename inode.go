package sekit

import (
	"fmt"
	gopath "path"
	"time"
)

// Inode is the basic container of information representing one entry on a
// storage element: path, modification time, directory flag and size.
//
// Inodes are produced by stat and listdir operations and are never mutated
// afterwards.
type Inode struct {
	Path    string
	ModTime time.Time
	IsDir   bool
	Size    int64
}

// NewInode constructs an Inode with a normalized path.
func NewInode(path string, modTime time.Time, isDir bool, size int64) (*Inode, error) {
	p, err := Normpath(path)
	if err != nil {
		return nil, err
	}
	return &Inode{Path: p, ModTime: modTime, IsDir: isDir, Size: size}, nil
}

// IsFile reports whether the inode is a regular file.
func (i *Inode) IsFile() bool {
	return !i.IsDir
}

// Basename returns the final path segment.
func (i *Inode) Basename() string {
	return gopath.Base(i.Path)
}

// Dirname returns the parent directory, server prefix included.
func (i *Inode) Dirname() string {
	d, err := Dirname(i.Path)
	if err != nil {
		return ""
	}
	return d
}

// Server returns the "protocol://host" prefix, or "" for local paths.
func (i *Inode) Server() string {
	server, _, err := splitServerURI(i.Path)
	if err != nil {
		return ""
	}
	return server
}

// PathNoServer returns the logical path with the server prefix stripped.
func (i *Inode) PathNoServer() string {
	_, lfn, err := splitServerURI(i.Path)
	if err != nil {
		return i.Path
	}
	return lfn
}

// SizeHuman returns the size as a human-readable string, e.g. "1.5 kb".
func (i *Inode) SizeHuman() string {
	return BytesHuman(float64(i.Size))
}

// Equal reports structural equality over all four fields.
func (i *Inode) Equal(other *Inode) bool {
	if other == nil {
		return false
	}
	return i.Path == other.Path &&
		i.ModTime.Equal(other.ModTime) &&
		i.IsDir == other.IsDir &&
		i.Size == other.Size
}

func (i *Inode) String() string {
	kind := "file"
	if i.IsDir {
		kind = "dir"
	}
	return fmt.Sprintf("Inode(%s %s)", kind, i.Path)
}

// BytesHuman converts a number of bytes to a human-readable string.
func BytesHuman(num float64) string {
	for _, unit := range []string{"", "k", "M", "G", "T", "P", "E", "Z"} {
		if num < 1024.0 && num > -1024.0 {
			return fmt.Sprintf("%3.1f %sb", num, unit)
		}
		num /= 1024.0
	}
	return fmt.Sprintf("%3.1f Yb", num)
}
