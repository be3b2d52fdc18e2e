package xrd

import "github.com/gobeaver/sekit"

func init() {
	sekit.RegisterBackend(sekit.BackendXrd, New())
}
