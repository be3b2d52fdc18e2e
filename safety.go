package sekit

import (
	"regexp"
	"strings"
)

// ============================================================================
// Remove safety gate
// ============================================================================

// DefaultRmBlacklist lists the logical paths no remove may ever touch.
// Entries containing '*' are patterns; they only apply to paths with the
// same number of segments.
var DefaultRmBlacklist = []string{
	"/",
	"/store",
	"/store/user",
	"/store/user/*",
}

// RemoveGuard gates every remove operation with blacklist and whitelist
// path-prefix checks. The zero value blocks nothing; use NewRemoveGuard
// for the default blacklist.
//
// A guard is plain data with no lifecycle: the lists in effect are
// whatever the guard holds at call time. Guards are not safe for
// concurrent mutation during an in-flight remove.
type RemoveGuard struct {
	Blacklist []string
	Whitelist []string
}

// NewRemoveGuard returns a guard with the default blacklist and an empty
// (unrestricting) whitelist.
func NewRemoveGuard() *RemoveGuard {
	return &RemoveGuard{Blacklist: append([]string(nil), DefaultRmBlacklist...)}
}

// Check validates that path may be removed. It must run before the
// backend is invoked.
//
// The path must carry a protocol: a remove against a bare local-looking
// path fails with ErrRemoteRequired. The logical path is then checked
// against the blacklist — exact matches at any depth, pattern matches
// only at equal segment depth — and, if a whitelist is set, must start
// with one of its entries.
func (g *RemoveGuard) Check(path string) error {
	if !HasProtocol(path) {
		return &PathError{Op: "rm", Path: path, Err: ErrRemoteRequired}
	}
	normalized, err := Normpath(path)
	if err != nil {
		return err
	}
	_, lfn, err := SplitServer(normalized, "")
	if err != nil {
		return err
	}
	depth := strings.Count(lfn, "/")

	for _, entry := range g.Blacklist {
		if entry == lfn {
			return &PathError{Op: "rm", Path: path, Err: ErrRmSafety}
		}
		if strings.Count(entry, "/") != depth {
			continue
		}
		re, err := compileWildcard(entry)
		if err != nil {
			return err
		}
		if re.MatchString(lfn) {
			return &PathError{Op: "rm", Path: path, Err: ErrRmSafety}
		}
	}

	if len(g.Whitelist) > 0 {
		allowed := false
		for _, entry := range g.Whitelist {
			if strings.HasPrefix(lfn, entry) {
				allowed = true
				break
			}
		}
		if !allowed {
			return &PathError{Op: "rm", Path: path, Err: ErrRmSafety}
		}
	}
	return nil
}

// compileWildcard turns a '*' pattern into a prefix-anchored regexp.
// Literal segments are escaped; each '*' matches any run of characters.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*"))
}
