package gfal

import "github.com/gobeaver/sekit"

func init() {
	sekit.RegisterBackend(sekit.BackendGfal, New())
}
