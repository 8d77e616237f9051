//go:build !wasm

package gls

import "github.com/petermattis/goid"

// ID returns the id of the calling goroutine.
func ID() int64 {
	return goid.Get()
}
