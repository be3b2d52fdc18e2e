package memory

import "github.com/gobeaver/sekit"

func init() {
	sekit.RegisterBackend(sekit.BackendFake, New())
}
