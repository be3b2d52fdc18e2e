package sekit

// CopyOptions configures a copy operation.
type CopyOptions struct {
	// Attempts is the number of tries for flaky transfers. Zero means the
	// session default.
	Attempts int

	// CreateParentDirectory creates missing parent directories of dst.
	CreateParentDirectory bool

	// Verbose keeps the tool's progress output.
	Verbose bool

	// Force overwrites an existing destination.
	Force bool
}

// DefaultCopyOptions returns the options used when none are given.
func DefaultCopyOptions() *CopyOptions {
	return &CopyOptions{
		CreateParentDirectory: true,
		Verbose:               true,
	}
}

// CopyOption is a functional option for Copy.
type CopyOption func(*CopyOptions)

// WithAttempts sets the number of copy attempts.
func WithAttempts(n int) CopyOption {
	return func(o *CopyOptions) {
		o.Attempts = n
	}
}

// WithForce overwrites an existing destination.
func WithForce() CopyOption {
	return func(o *CopyOptions) {
		o.Force = true
	}
}

// WithQuiet suppresses the tool's progress output.
func WithQuiet() CopyOption {
	return func(o *CopyOptions) {
		o.Verbose = false
	}
}

// WithoutParentDirectory disables creation of missing parent directories.
func WithoutParentDirectory() CopyOption {
	return func(o *CopyOptions) {
		o.CreateParentDirectory = false
	}
}

// LsOptions configures a single-level listing.
type LsOptions struct {
	// Stat populates full inodes instead of bare paths.
	Stat bool

	// AssumeIsDir skips the existence/type probe, saving one round trip.
	// Used by walk, where directory-ness is already established.
	AssumeIsDir bool

	// NoExpandDirectory returns a reference to the directory itself
	// instead of its contents, like ls -d.
	NoExpandDirectory bool
}

// LsOption is a functional option for Ls.
type LsOption func(*LsOptions)

// WithStat returns full inodes instead of bare paths.
func WithStat() LsOption {
	return func(o *LsOptions) {
		o.Stat = true
	}
}

// AssumeIsDir skips the existence/type probe.
func AssumeIsDir() LsOption {
	return func(o *LsOptions) {
		o.AssumeIsDir = true
	}
}

// NoExpandDirectory lists the directory itself rather than its contents.
func NoExpandDirectory() LsOption {
	return func(o *LsOptions) {
		o.NoExpandDirectory = true
	}
}
