// Package xrd backs storage-element operations with the XRootD command
// line client: xrdfs for metadata and xrdcp for transfers.
//
// xrdfs cannot delete directory contents recursively, which is why other
// tools rank above it for removals.
package xrd

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobeaver/sekit"
	"github.com/gobeaver/sekit/run"
)

// xrdfs stamps modification times in this layout, both in stat output
// and in ls -l listings.
const timeLayout = "2006-01-02 15:04:05"

// rcodes maps xrdfs exit codes onto package sentinels.
var rcodes = map[int]error{
	54: sekit.ErrNoSuchPath,
	52: sekit.ErrPermission,
	51: sekit.ErrHostUnreachable,
}

// Backend runs xrdfs and xrdcp.
type Backend struct {
	runner *run.Runner
	log    *zap.Logger
}

// Option configures the backend.
type Option func(*Backend)

// WithRunner replaces the command runner, e.g. to set a dry mode or an
// environment overlay.
func WithRunner(r *run.Runner) Option {
	return func(b *Backend) {
		b.runner = r
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) {
		b.log = log
		b.runner = run.New(run.WithLogger(log))
	}
}

// New creates an xrd backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		runner: run.New(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return sekit.BackendXrd }

// CheckInstalled reports whether xrdfs is on the PATH.
func (b *Backend) CheckInstalled() bool {
	_, err := osexec.LookPath("xrdfs")
	return err == nil
}

func (b *Backend) Capabilities() sekit.OpSet {
	return sekit.AllOps()
}

func (b *Backend) run(ctx context.Context, path string, args ...string) (*run.Result, error) {
	res, err := b.runner.Run(ctx, args...)
	if err = run.Classify(err, rcodes); err != nil {
		return nil, &sekit.PathError{Op: args[0], Path: path, Err: err}
	}
	return res, nil
}

// Stat runs `xrdfs <server> stat <lfn>` and parses the Size, MTime and
// Flags lines of its output.
func (b *Backend) Stat(ctx context.Context, path string) (*sekit.Inode, error) {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return nil, err
	}
	res, err := b.run(ctx, path, "xrdfs", server, "stat", lfn)
	if err != nil {
		return nil, err
	}

	var (
		size        int64
		modTime     time.Time
		isDir       bool
		haveSize    bool
		haveModTime bool
		haveFlags   bool
	)
	for _, line := range res.Lines() {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Size:"):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			size, err = strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stat size %q: %w", line, err)
			}
			haveSize = true
		case strings.HasPrefix(line, "MTime:"):
			stamp := strings.TrimSpace(strings.TrimPrefix(line, "MTime:"))
			modTime, err = time.Parse(timeLayout, stamp)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stat mtime %q: %w", line, err)
			}
			haveModTime = true
		case strings.HasPrefix(line, "Flags:"):
			isDir = strings.Contains(line, "IsDir")
			haveFlags = true
		}
	}
	if !haveSize || !haveModTime || !haveFlags {
		return nil, fmt.Errorf("incomplete stat output for %s:\n%s", path, res.Output)
	}
	return sekit.NewInode(path, modTime, isDir, size)
}

// Listdir runs `xrdfs <server> ls [-l] <lfn>`.
func (b *Backend) Listdir(ctx context.Context, dir string, withStat bool) ([]sekit.Inode, error) {
	server, lfn, err := sekit.SplitServer(dir, "")
	if err != nil {
		return nil, err
	}
	args := []string{"xrdfs", server, "ls", lfn}
	if withStat {
		args = append(args, "-l")
	}
	res, err := b.run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	var contents []sekit.Inode
	for _, line := range res.Lines() {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if withStat {
			inode, err := parseStatLine(line, server)
			if err != nil {
				return nil, err
			}
			contents = append(contents, *inode)
		} else {
			p, err := sekit.Format(line, server)
			if err != nil {
				return nil, err
			}
			contents = append(contents, sekit.Inode{Path: p})
		}
	}
	return contents, nil
}

// parseStatLine converts one line of `xrdfs <server> ls -l` output into
// an inode. Lines look like:
//
//	drwxr-xr-x 2023-05-01 12:00:00        4096 /store/user/jdoe
func parseStatLine(line, server string) (*sekit.Inode, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return nil, fmt.Errorf("expected 5 fields in stat line %q, got %d", line, len(fields))
	}
	isDir := strings.HasPrefix(fields[0], "d")
	modTime, err := time.Parse(timeLayout, fields[1]+" "+fields[2])
	if err != nil {
		return nil, fmt.Errorf("failed to parse stat line time %q: %w", line, err)
	}
	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stat line size %q: %w", line, err)
	}
	path, err := sekit.Format(fields[4], server)
	if err != nil {
		return nil, err
	}
	return sekit.NewInode(path, modTime, isDir, size)
}

// Copy runs xrdcp. Either side of the transfer may be local.
func (b *Backend) Copy(ctx context.Context, src, dst string, opts *sekit.CopyOptions) error {
	if opts == nil {
		opts = sekit.DefaultCopyOptions()
	}
	args := []string{"xrdcp"}
	if opts.Force {
		args = append(args, "-f")
	}
	if opts.CreateParentDirectory {
		args = append(args, "-p")
	}
	if !opts.Verbose {
		args = append(args, "-s")
	}
	args = append(args, src, dst)

	_, err := b.runner.RunAttempts(ctx, opts.Attempts, args...)
	if err = run.Classify(err, rcodes); err != nil {
		return &sekit.PathError{Op: "cp", Path: src + " -> " + dst, Err: err}
	}
	return nil
}

// Remove deletes a path with `xrdfs rm` or, for an empty directory,
// `xrdfs rmdir`. xrdfs cannot delete directory contents recursively, so
// recursive removal of a non-empty directory fails at the tool level.
func (b *Backend) Remove(ctx context.Context, path string, recursive bool) error {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return err
	}
	inode, err := b.Stat(ctx, path)
	if err != nil {
		return err
	}
	rm := "rm"
	if inode.IsDir {
		if !recursive {
			return &sekit.PathError{Op: "rm", Path: path, Err: sekit.ErrNotRecursive}
		}
		rm = "rmdir"
	}
	_, err = b.run(ctx, path, "xrdfs", server, rm, lfn)
	return err
}

// Mkdir runs `xrdfs mkdir -p`.
func (b *Backend) Mkdir(ctx context.Context, path string) error {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return err
	}
	_, err = b.run(ctx, path, "xrdfs", server, "mkdir", "-p", lfn)
	return err
}

// Cat returns the contents of a remote file via `xrdfs cat`.
func (b *Backend) Cat(ctx context.Context, path string) (string, error) {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return "", err
	}
	res, err := b.run(ctx, path, "xrdfs", server, "cat", lfn)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

var _ sekit.Backend = (*Backend)(nil)
