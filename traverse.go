package sekit

import (
	"context"
	"fmt"
	gopath "path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxWalkRequests caps the number of listings a walk may issue
// when the configuration does not say otherwise.
const DefaultMaxWalkRequests = 20

// Ls lists a path on the storage element.
//
// A missing path fails with ErrNoSuchPath. A file yields a one-element
// result. A directory yields its contents, or a one-element reference to
// the directory itself under NoExpandDirectory (like ls -d). With
// AssumeIsDir the existence/type probe is skipped, saving one round trip.
//
// Without WithStat, the returned inodes carry only their Path.
func (s *Session) Ls(ctx context.Context, path string, opts ...LsOption) ([]Inode, error) {
	var o LsOptions
	for _, opt := range opts {
		opt(&o)
	}
	p, err := s.Format(path)
	if err != nil {
		return nil, err
	}

	kind := KindDirectory
	if !o.AssumeIsDir {
		kind, err = s.IsFileOrDir(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case KindAbsent:
		return nil, &PathError{Op: "ls", Path: p, Err: ErrNoSuchPath}
	case KindDirectory:
		if !o.NoExpandDirectory {
			return s.listdirAssume(ctx, p, o.Stat)
		}
	}
	// A file, or an unexpanded directory: one-element result.
	if o.Stat {
		inode, err := s.Stat(ctx, p)
		if err != nil {
			return nil, err
		}
		return []Inode{*inode}, nil
	}
	return []Inode{{Path: p}}, nil
}

// WalkFunc is called once per visited directory with that directory's
// subdirectories and files, both sorted by basename. The returned slice
// is the set of subdirectories the walk descends into: return dirs
// unchanged to descend everywhere, a filtered subset to prune, or nil to
// stop descending this branch. Entries not present in dirs are ignored.
type WalkFunc func(dir string, dirs, files []Inode) ([]Inode, error)

// Walk traverses a directory tree depth-first in pre-order, one listing
// per directory. It fails immediately if path is not a directory.
//
// A shared request counter is incremented per directory visited; crossing
// the configured maximum aborts with ErrWalkBudget. The cap bounds costly
// network round trips, not true recursion depth.
func (s *Session) Walk(ctx context.Context, path string, fn WalkFunc) error {
	p, err := s.Format(path)
	if err != nil {
		return err
	}
	kind, err := s.IsFileOrDir(ctx, p)
	if err != nil {
		return err
	}
	if kind != KindDirectory {
		return &PathError{Op: "walk", Path: p, Err: ErrNotDir}
	}
	requests := 0
	return s.walk(ctx, p, fn, &requests)
}

func (s *Session) walk(ctx context.Context, dir string, fn WalkFunc, requests *int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	budget := s.cfg.MaxWalkRequests
	if budget <= 0 {
		budget = DefaultMaxWalkRequests
	}
	if *requests >= budget {
		return fmt.Errorf("%w of %d listings; raise MaxWalkRequests if you really need this many",
			ErrWalkBudget, budget)
	}

	contents, err := s.Ls(ctx, dir, WithStat(), AssumeIsDir())
	if err != nil {
		return err
	}
	*requests++

	var dirs, files []Inode
	for _, inode := range contents {
		if inode.IsDir {
			dirs = append(dirs, inode)
		} else {
			files = append(files, inode)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Basename() < dirs[j].Basename() })
	sort.Slice(files, func(i, j int) bool { return files[i].Basename() < files[j].Basename() })

	keep, err := fn(dir, dirs, files)
	if err != nil {
		return err
	}
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k.Path] = true
	}
	for _, d := range dirs {
		if !keepSet[d.Path] {
			continue
		}
		if err := s.walk(ctx, d.Path, fn, requests); err != nil {
			return err
		}
	}
	return nil
}

// LsWildcard is like Ls but resolves '*' glob patterns. Directories
// matching the pattern are not expanded.
//
// The general algorithm walks from the literal part of the pattern and
// discards non-matching directories early; the number of round trips can
// still grow quickly, so a limited number of wildcards is advised. The
// one case of a single '*' confined to the final segment with withStat
// false takes a shortcut: one listing plus local basename matching.
func (s *Session) LsWildcard(ctx context.Context, pattern string, withStat bool) ([]Inode, error) {
	p, err := s.Format(pattern)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(p, "*") {
		opts := []LsOption{NoExpandDirectory()}
		if withStat {
			opts = append(opts, WithStat())
		}
		return s.Ls(ctx, p, opts...)
	}

	slash := strings.LastIndex(p, "/")
	if !withStat && !strings.Contains(p[:slash], "*") {
		// The star only appears in the very last segment and no stat is
		// needed: a single listing with local regex matching is much
		// faster than a walk.
		s.log.Debug("wildcard shortcut", zap.String("pattern", p))
		dir, last := p[:slash], p[slash+1:]
		contents, err := s.Ls(ctx, dir)
		if err != nil {
			return nil, err
		}
		if last == "*" {
			// Match-all; skip the regex entirely
			return contents, nil
		}
		re, err := compileWildcard(last)
		if err != nil {
			return nil, err
		}
		matches := contents[:0:0]
		for _, c := range contents {
			if re.MatchString(gopath.Base(c.Path)) {
				matches = append(matches, c)
			}
		}
		return matches, nil
	}

	patternLevel := strings.Count(p, "/")
	parts := strings.Split(p, "/")
	// The literal prefix before the first '*', trimmed to the last
	// complete segment, is where the walk starts.
	prefix, _, _ := strings.Cut(p, "*")
	base := prefix[:strings.LastIndex(prefix, "/")]
	s.log.Debug("wildcard walk",
		zap.String("pattern", p), zap.String("base", base))

	var matches []Inode
	err = s.Walk(ctx, base, func(dir string, dirs, files []Inode) ([]Inode, error) {
		level := strings.Count(dir, "/")
		n := min(level+2, len(parts))
		re, err := compileWildcard(strings.Join(parts[:n], "/"))
		if err != nil {
			return nil, err
		}
		var kept []Inode
		for _, d := range dirs {
			if re.MatchString(d.Path) {
				kept = append(kept, d)
			}
		}
		if level+1 == patternLevel {
			// Reached the depth of the pattern: collect matches and stop
			// descending in this branch.
			matches = append(matches, kept...)
			for _, f := range files {
				if re.MatchString(f.Path) {
					matches = append(matches, f)
				}
			}
			return nil, nil
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Find walks the tree under path and collects the files the selector
// matches; directories are descended into only where the selector allows.
// The walk request budget applies.
func (s *Session) Find(ctx context.Context, path string, sel Selector) ([]Inode, error) {
	if sel == nil {
		sel = All()
	}
	var results []Inode
	err := s.Walk(ctx, path, func(dir string, dirs, files []Inode) ([]Inode, error) {
		for _, f := range files {
			if sel.Match(&f) {
				results = append(results, f)
			}
		}
		var keep []Inode
		for _, d := range dirs {
			if sel.Descend(&d) {
				keep = append(keep, d)
			}
		}
		return keep, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
