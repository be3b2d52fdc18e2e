package sekit

import (
	"fmt"
	"sort"
	"sync"
)

// Canonical backend names. The selection orders in selector.go refer to
// these; driver packages register themselves under them.
const (
	BackendXrd   = "xrd"
	BackendPyxrd = "pyxrd"
	BackendGfal  = "gfal"
	BackendEos   = "eos"
	BackendSSH   = "ssh"
	BackendFake  = "fake"
)

// registeredBackend pairs a backend singleton with its memoized
// installation check. The check runs at most once per process; a changed
// installation state is only picked up after a restart.
type registeredBackend struct {
	backend Backend

	installOnce sync.Once
	installed   bool
}

func (r *registeredBackend) Installed() bool {
	r.installOnce.Do(func() {
		r.installed = r.backend.CheckInstalled()
	})
	return r.installed
}

var (
	backendMutex sync.RWMutex
	backends     = make(map[string]*registeredBackend)
)

// RegisterBackend registers a backend singleton under name. Registering
// the same name again replaces the previous entry and resets its memoized
// installation check.
func RegisterBackend(name string, b Backend) {
	backendMutex.Lock()
	defer backendMutex.Unlock()
	backends[name] = &registeredBackend{backend: b}
}

// GetBackend returns the backend registered under name.
func GetBackend(name string) (Backend, error) {
	backendMutex.RLock()
	entry, exists := backends[name]
	backendMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("backend %s not registered", name)
	}
	return entry.backend, nil
}

// BackendNames returns the names of all registered backends, sorted.
func BackendNames() []string {
	backendMutex.RLock()
	defer backendMutex.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupBackend(name string) (*registeredBackend, bool) {
	backendMutex.RLock()
	entry, exists := backends[name]
	backendMutex.RUnlock()
	return entry, exists
}

func init() {
	// The pyxrd slot is reserved for an xrootd client-library backend;
	// it participates in the selection orders but is never installed.
	RegisterBackend(BackendPyxrd, PlaceholderBackend{BackendName: BackendPyxrd})
}
