//go:build wasm

package gls

// ID returns a constant: wasm runs every goroutine on a single thread and the
// goroutine id can't be read there.
func ID() int64 {
	return 1
}
