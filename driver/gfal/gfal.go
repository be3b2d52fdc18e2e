// Package gfal backs storage-element operations with the gfal2 command
// line utilities (gfal-stat, gfal-ls, gfal-copy, gfal-rm, gfal-mkdir,
// gfal-cat). The gfal tools take full URLs, so no server splitting is
// needed, and gfal-rm is one of the two tools that can delete a
// directory tree recursively.
package gfal

import (
	"context"
	"fmt"
	osexec "os/exec"
	gopath "path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobeaver/sekit"
	"github.com/gobeaver/sekit/run"
)

// The gfal tools exit with the errno of the failed operation.
var rcodes = map[int]error{
	2:  sekit.ErrNoSuchPath,
	13: sekit.ErrPermission,
	70: sekit.ErrHostUnreachable,
}

// Backend runs the gfal-* utilities.
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

// New creates a gfal backend.
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

func (b *Backend) Name() string { return sekit.BackendGfal }

// CheckInstalled reports whether gfal-stat is on the PATH. The gfal
// utilities ship as one package, so one probe covers them all.
func (b *Backend) CheckInstalled() bool {
	_, err := osexec.LookPath("gfal-stat")
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

// Stat parses the Size and Modify lines of gfal-stat output:
//
//	  File: 'root://host//store/user/jdoe'
//	  Size: 4096            directory
//	Access: (0755/drwxr-xr-x)   Uid: 0   Gid: 0
//	Modify: 2023-05-01 12:00:00.000000
func (b *Backend) Stat(ctx context.Context, path string) (*sekit.Inode, error) {
	res, err := b.run(ctx, path, "gfal-stat", path)
	if err != nil {
		return nil, err
	}

	var (
		size        int64
		modTime     time.Time
		isDir       bool
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
			isDir = strings.Contains(line, "directory")
			haveSize = true
		case strings.HasPrefix(line, "Modify:"):
			stamp := strings.TrimSpace(strings.TrimPrefix(line, "Modify:"))
			// Strip the fractional seconds gfal appends
			if dot := strings.Index(stamp, "."); dot >= 0 {
				stamp = stamp[:dot]
			}
			modTime, err = time.Parse("2006-01-02 15:04:05", stamp)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stat mtime %q: %w", line, err)
			}
			haveModTime = true
		}
	}
	if !haveSize || !haveModTime {
		return nil, fmt.Errorf("incomplete stat output for %s:\n%s", path, res.Output)
	}
	return sekit.NewInode(path, modTime, isDir, size)
}

// Listdir runs `gfal-ls [-l] <dir>`. Entries are reported as bare names
// and joined back onto dir.
func (b *Backend) Listdir(ctx context.Context, dir string, withStat bool) ([]sekit.Inode, error) {
	args := []string{"gfal-ls"}
	if withStat {
		args = append(args, "-l")
	}
	args = append(args, dir)
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
			contents = append(contents, sekit.Inode{Path: joinEntry(dir, line)})
		}
	}
	return contents, nil
}

// joinEntry appends a listing entry onto its directory. gfal-ls reports
// bare names for directory contents, but echoes the full URL back when
// the listed path is itself a file.
func joinEntry(dir, name string) string {
	if sekit.HasProtocol(name) {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + gopath.Base(name)
}

// parseLongLine converts one `gfal-ls -l` line into an inode:
//
//	-rw-r--r--   1 0     0     1048576 Jul 20 10:30 out_1.root
//	drwxr-xr-x   1 0     0        4096 Jan  5  2023 logs
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
	return sekit.NewInode(joinEntry(dir, fields[8]), modTime, isDir, size)
}

// parseListingTime handles the two ls-style date shapes: "Jul 20 10:30"
// for recent entries and "Jan  5 2023" for older ones. The recent shape
// carries no year; the current year is assumed.
func parseListingTime(month, day, rest string) (time.Time, error) {
	if strings.Contains(rest, ":") {
		t, err := time.Parse("Jan 2 15:04", month+" "+day+" "+rest)
		if err != nil {
			return time.Time{}, err
		}
		now := time.Now()
		return t.AddDate(now.Year(), 0, 0), nil
	}
	return time.Parse("Jan 2 2006", month+" "+day+" "+rest)
}

// Copy runs gfal-copy. Local sides must be expressed as file:// URLs,
// which gfal-copy requires; bare local paths are converted.
func (b *Backend) Copy(ctx context.Context, src, dst string, opts *sekit.CopyOptions) error {
	if opts == nil {
		opts = sekit.DefaultCopyOptions()
	}
	args := []string{"gfal-copy"}
	if opts.Force {
		args = append(args, "-f")
	}
	if opts.CreateParentDirectory {
		args = append(args, "-p")
	}
	args = append(args, fileURL(src), fileURL(dst))

	_, err := b.runner.RunAttempts(ctx, opts.Attempts, args...)
	if err = run.Classify(err, rcodes); err != nil {
		return &sekit.PathError{Op: "cp", Path: src + " -> " + dst, Err: err}
	}
	return nil
}

func fileURL(path string) string {
	if sekit.HasProtocol(path) || sekit.IsSSH(path) {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}

// Remove runs `gfal-rm [-r] <path>`.
func (b *Backend) Remove(ctx context.Context, path string, recursive bool) error {
	inode, err := b.Stat(ctx, path)
	if err != nil {
		return err
	}
	args := []string{"gfal-rm"}
	if inode.IsDir {
		if !recursive {
			return &sekit.PathError{Op: "rm", Path: path, Err: sekit.ErrNotRecursive}
		}
		args = append(args, "-r")
	}
	args = append(args, path)
	_, err = b.run(ctx, path, args...)
	return err
}

// Mkdir runs `gfal-mkdir -p`.
func (b *Backend) Mkdir(ctx context.Context, path string) error {
	_, err := b.run(ctx, path, "gfal-mkdir", "-p", path)
	return err
}

// Cat returns the contents of a remote file via gfal-cat.
func (b *Backend) Cat(ctx context.Context, path string) (string, error) {
	res, err := b.run(ctx, path, "gfal-cat", path)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

var _ sekit.Backend = (*Backend)(nil)
