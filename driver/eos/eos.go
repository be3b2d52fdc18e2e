// Package eos backs storage-element operations with the EOS shell
// ("eos root://mgm <command>"). EOS is the only xrootd-family tool that
// can delete a directory tree recursively, which is why it ranks first
// for removals.
package eos

import (
	"context"
	"fmt"
	"math"
	osexec "os/exec"
	gopath "path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobeaver/sekit"
	"github.com/gobeaver/sekit/run"
)

// The eos shell exits with the errno of the failed operation.
var rcodes = map[int]error{
	2:  sekit.ErrNoSuchPath,
	13: sekit.ErrPermission,
	70: sekit.ErrHostUnreachable,
}

// Backend runs the eos shell.
type Backend struct {
	runner *run.Runner
	log    *zap.Logger
}

// Option configures the backend.
type Option func(*Backend)

// WithRunner replaces the command runner.
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

// New creates an eos backend.
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

func (b *Backend) Name() string { return sekit.BackendEos }

// CheckInstalled reports whether the eos shell is on the PATH.
func (b *Backend) CheckInstalled() bool {
	_, err := osexec.LookPath("eos")
	return err == nil
}

func (b *Backend) Capabilities() sekit.OpSet {
	return sekit.AllOps()
}

func (b *Backend) run(ctx context.Context, path string, args ...string) (*run.Result, error) {
	res, err := b.runner.Run(ctx, args...)
	if err = run.Classify(err, rcodes); err != nil {
		return nil, &sekit.PathError{Op: "eos " + args[2], Path: path, Err: err}
	}
	return res, nil
}

// Stat runs `eos <mgm> stat <lfn>`. The size comes from the Size line,
// the modification time from the nanosecond Timestamp on the Modify
// line, and directory-ness from the type token at the end of the output.
func (b *Backend) Stat(ctx context.Context, path string) (*sekit.Inode, error) {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return nil, err
	}
	res, err := b.run(ctx, path, "eos", server, "stat", lfn)
	if err != nil {
		return nil, err
	}

	var (
		size        int64
		modTime     time.Time
		haveSize    bool
		haveModTime bool
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
		case strings.HasPrefix(line, "Modify:"):
			stamp, ok := cutAfter(line, "Timestamp:")
			if !ok {
				continue
			}
			seconds, err := strconv.ParseFloat(stamp, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stat timestamp %q: %w", line, err)
			}
			sec, frac := math.Modf(seconds)
			modTime = time.Unix(int64(sec), int64(frac*1e9))
			haveModTime = true
		}
	}
	if !haveSize || !haveModTime {
		return nil, fmt.Errorf("incomplete stat output for %s:\n%s", path, res.Output)
	}
	isDir := strings.Contains(res.Output, "directory")
	return sekit.NewInode(path, modTime, isDir, size)
}

// cutAfter returns the first whitespace-delimited token following the
// marker.
func cutAfter(line, marker string) (string, bool) {
	_, rest, found := strings.Cut(line, marker)
	if !found {
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// Listdir runs `eos <mgm> ls [-l] <lfn>`.
func (b *Backend) Listdir(ctx context.Context, dir string, withStat bool) ([]sekit.Inode, error) {
	server, lfn, err := sekit.SplitServer(dir, "")
	if err != nil {
		return nil, err
	}
	args := []string{"eos", server, "ls"}
	if withStat {
		args = append(args, "-l")
	}
	args = append(args, lfn)
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
			inode, err := parseLongLine(line, dir)
			if err != nil {
				return nil, err
			}
			contents = append(contents, *inode)
		} else {
			contents = append(contents, sekit.Inode{
				Path: strings.TrimRight(dir, "/") + "/" + gopath.Base(line),
			})
		}
	}
	return contents, nil
}

// parseLongLine converts one `eos ls -l` line into an inode. The shape
// is the classic ls -l one:
//
//	-rw-r--r--   1 jdoe  zh     1048576 Jul 20 10:30 out_1.root
//	drwxr-xr-x   1 jdoe  zh        4096 Jan  5  2023 logs
func parseLongLine(line, dir string) (*sekit.Inode, error) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected at least 9 fields in listing line %q, got %d", line, len(fields))
	}
	isDir := strings.HasPrefix(fields[0], "d")
	size, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing size %q: %w", line, err)
	}
	modTime, err := parseListingTime(fields[5], fields[6], fields[7])
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing time %q: %w", line, err)
	}
	path := strings.TrimRight(dir, "/") + "/" + fields[8]
	return sekit.NewInode(path, modTime, isDir, size)
}

func parseListingTime(month, day, rest string) (time.Time, error) {
	if strings.Contains(rest, ":") {
		t, err := time.Parse("Jan 2 15:04", month+" "+day+" "+rest)
		if err != nil {
			return time.Time{}, err
		}
		return t.AddDate(time.Now().Year(), 0, 0), nil
	}
	return time.Parse("Jan 2 2006", month+" "+day+" "+rest)
}

// Copy runs `eos <mgm> cp`. The mgm is taken from whichever side of the
// transfer is remote.
func (b *Backend) Copy(ctx context.Context, src, dst string, opts *sekit.CopyOptions) error {
	if opts == nil {
		opts = sekit.DefaultCopyOptions()
	}
	remote := src
	if sekit.HasProtocol(dst) {
		remote = dst
	}
	server, _, err := sekit.SplitServer(remote, "")
	if err != nil {
		return err
	}
	args := []string{"eos", server, "cp"}
	if !opts.Verbose {
		args = append(args, "--silent")
	}
	args = append(args, src, dst)

	_, err = b.runner.RunAttempts(ctx, opts.Attempts, args...)
	if err = run.Classify(err, rcodes); err != nil {
		return &sekit.PathError{Op: "cp", Path: src + " -> " + dst, Err: err}
	}
	return nil
}

// Remove runs `eos <mgm> rm [-r] <lfn>`. Unlike xrdfs, eos deletes
// directory contents recursively.
func (b *Backend) Remove(ctx context.Context, path string, recursive bool) error {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return err
	}
	inode, err := b.Stat(ctx, path)
	if err != nil {
		return err
	}
	args := []string{"eos", server, "rm"}
	if inode.IsDir {
		if !recursive {
			return &sekit.PathError{Op: "rm", Path: path, Err: sekit.ErrNotRecursive}
		}
		args = append(args, "-r")
	}
	args = append(args, lfn)
	_, err = b.run(ctx, path, args...)
	return err
}

// Mkdir runs `eos <mgm> mkdir -p <lfn>`.
func (b *Backend) Mkdir(ctx context.Context, path string) error {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return err
	}
	_, err = b.run(ctx, path, "eos", server, "mkdir", "-p", lfn)
	return err
}

// Cat returns the contents of a remote file via `eos <mgm> cat <lfn>`.
func (b *Backend) Cat(ctx context.Context, path string) (string, error) {
	server, lfn, err := sekit.SplitServer(path, "")
	if err != nil {
		return "", err
	}
	res, err := b.run(ctx, path, "eos", server, "cat", lfn)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

var _ sekit.Backend = (*Backend)(nil)
