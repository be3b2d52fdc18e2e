package sekit

import (
	"fmt"
	gopath "path"
	"strings"
)

// ============================================================================
// URI Model
// ============================================================================
//
// A remote path is a composite of three parts:
//
//	protocol://server/logical-path
//
// The logical path always starts with '/', so the canonical string form
// carries a double slash after the server: "root://host//store/file.txt".
// The "protocol://server" prefix is referred to as the server (the mgm, in
// xrootd terms) throughout this package.
//
// Two path shapes bypass the model entirely:
//   - local paths (no protocol) are handled by the caller;
//   - ssh-style paths ("host:/path", a ':/' without '://') pass through
//     every normalization routine unmodified.

// HasProtocol checks whether the path contains a protocol.
// A basic substring check, which so far has been enough.
func HasProtocol(path string) bool {
	return strings.Contains(path, "://")
}

// IsSSH checks whether the path is ssh-style, e.g. "host:/some/path".
func IsSSH(path string) bool {
	return strings.Contains(path, ":/") && !strings.Contains(path, "://")
}

// SplitURI splits protocol, server and logical path from a remote path.
// Returns ErrFormat if the path carries no protocol, or if no separator
// between server and logical path can be found.
func SplitURI(uri string) (protocol, server, lfn string, err error) {
	if !HasProtocol(uri) {
		return "", "", "", &PathError{Op: "split", Path: uri, Err: ErrFormat}
	}
	protocol, rest, _ := strings.Cut(uri, "://")
	server, lfn, found := strings.Cut(rest, "//")
	if !found {
		return "", "", "", &PathError{Op: "split", Path: uri, Err: ErrFormat}
	}
	// Restore the opening slash that was dropped in the cut
	lfn = "/" + lfn
	return protocol, server, lfn, nil
}

// splitServerURI returns the "protocol://host" prefix and the logical path.
func splitServerURI(uri string) (server, lfn string, err error) {
	protocol, host, lfn, err := SplitURI(uri)
	if err != nil {
		return "", "", err
	}
	return protocol + "://" + host, lfn, nil
}

// SplitServer returns the server and logical path the caller most likely
// intended:
//   - if path carries a protocol, the embedded server is used; passing a
//     conflicting explicit server returns ErrConflict;
//   - if path carries no protocol, the explicit server is used;
//   - if neither is available, ErrNoServer is returned.
//
// The returned logical path always starts with '/'.
func SplitServer(path, server string) (string, string, error) {
	var lfn string
	if HasProtocol(path) {
		embedded, embeddedLfn, err := splitServerURI(path)
		if err != nil {
			return "", "", err
		}
		if server != "" && server != embedded {
			return "", "", fmt.Errorf("%w: from path %s: %s, from argument: %s",
				ErrConflict, path, embedded, server)
		}
		server = embedded
		lfn = embeddedLfn
	} else if server == "" {
		return "", "", &PathError{Op: "split", Path: path, Err: ErrNoServer}
	} else {
		lfn = path
	}
	if !strings.HasPrefix(lfn, "/") {
		return "", "", &PathError{Op: "split", Path: path, Err: ErrFormat}
	}
	return server, lfn, nil
}

// joinServerLfn joins a server and a logical path into the canonical form.
// The logical path must start with '/'.
func joinServerLfn(server, lfn string) (string, error) {
	if !strings.HasPrefix(lfn, "/") {
		return "", &PathError{Op: "join", Path: lfn, Err: ErrFormat}
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}
	return server + lfn, nil
}

// Format normalizes a path into the canonical remote form. It accepts:
//   - a full remote path; the server argument, if given, must agree;
//   - a bare logical path plus an explicit server;
//   - an ssh-style path, which is returned unchanged.
//
// The logical path is cleaned of '.', '..' and duplicate separators.
func Format(path, server string) (string, error) {
	if IsSSH(path) {
		return path, nil
	}
	server, lfn, err := SplitServer(path, server)
	if err != nil {
		return "", err
	}
	return joinServerLfn(server, gopath.Clean(lfn))
}

// Normpath is like path.Clean, but works with a server prefix.
func Normpath(p string) (string, error) {
	if !HasProtocol(p) {
		return gopath.Clean(p), nil
	}
	server, lfn, err := splitServerURI(p)
	if err != nil {
		return "", err
	}
	return joinServerLfn(server, gopath.Clean(lfn))
}

// Dirname is like path.Dir, but works with a server prefix.
func Dirname(p string) (string, error) {
	if !HasProtocol(p) {
		return gopath.Dir(gopath.Clean(p)), nil
	}
	server, lfn, err := splitServerURI(p)
	if err != nil {
		return "", err
	}
	return joinServerLfn(server, gopath.Dir(gopath.Clean(lfn)))
}

// ParentDirs returns all parent directories of a path, nearest first:
//
//	ParentDirs("/foo/bar") == ["/foo", "/"]
//
// The sequence ends when successive Dirname calls stop changing value.
func ParentDirs(path string) ([]string, error) {
	var parents []string
	dir, err := Dirname(path)
	if err != nil {
		return nil, err
	}
	previous := ""
	for dir != previous {
		parents = append(parents, dir)
		previous = dir
		dir, err = Dirname(dir)
		if err != nil {
			return nil, err
		}
	}
	return parents, nil
}

// Protocol returns the protocol token of the formatted path.
func Protocol(path, server string) (string, error) {
	formatted, err := Format(path, server)
	if err != nil {
		return "", err
	}
	protocol, _, _ := strings.Cut(formatted, "://")
	return protocol, nil
}
