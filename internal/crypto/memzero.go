package crypto

import "runtime"

// Wipe zeroes b. Best-effort: the runtime may already have copied the data.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}
