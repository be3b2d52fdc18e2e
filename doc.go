// Package sekit provides a unified Go interface to grid storage elements,
// papering over the command line tools that actually talk to them: xrdfs
// and xrdcp, the gfal-* utilities, the EOS shell and plain ssh/scp.
//
// All tools expose the same handful of operations (stat, list, copy,
// remove, mkdir, cat) but differ in invocation, output format and
// capability quirks. SeKit normalizes paths into one canonical form,
// picks the best installed tool per operation, and returns uniform
// [Inode] results and sentinel errors regardless of which tool ran.
//
// # Paths
//
// Remote paths carry the server in the path itself:
//
//	root://cmseos.fnal.gov//store/user/jdoe/file.root
//	^^^^   ^^^^^^^^^^^^^^  ^^^^^^^^^^^^^^^^^^^^^^^^^^
//	protocol    server     logical file name
//
// The canonical form has a double slash between server and logical file
// name. ssh-style paths ("host:/path") are passed through untouched.
// Paths without a protocol resolve against the configured default server
// (SEKIT_DEFAULT_MGM).
//
// # Basic Usage
//
//	se, err := sekit.NewSession(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//
//	// Stat a remote path
//	inode, err := se.Stat(ctx, "root://cmseos.fnal.gov//store/user/jdoe")
//
//	// List a directory with full metadata
//	contents, err := se.Ls(ctx, "/store/user/jdoe", sekit.WithStat())
//
//	// Copy a file off the storage element
//	err = se.Copy(ctx, "root://host//store/user/jdoe/file.root", "file.root")
//
//	// Resolve wildcards remotely
//	matches, err := se.LsWildcard(ctx, "/store/user/jdoe/*/out_*.root", false)
//
// # Backends
//
// Each tool lives in its own driver subpackage and registers itself on
// import:
//
//	import (
//	    _ "github.com/gobeaver/sekit/driver/gfal"
//	    _ "github.com/gobeaver/sekit/driver/xrd"
//	)
//
// The session picks a backend per operation from a fixed priority order;
// [Session.Using] pins every operation to one named backend instead.
//
// # Safety
//
// Remove operations pass a configurable blacklist gate before any tool
// runs. The default blacklist refuses to delete /, /store, /store/user
// and any direct user directory under it. See [RemoveGuard].
package sekit
