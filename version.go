package sekit

// Version is the package version, also reported by `seu version`.
const Version = "0.1.0"
