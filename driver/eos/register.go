package eos

import "github.com/gobeaver/sekit"

func init() {
	sekit.RegisterBackend(sekit.BackendEos, New())
}
