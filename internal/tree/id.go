package tree

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Id identifies a node within a tree.
type Id uint64

// ZeroId is the id of the single node of trees backing one signal.
const ZeroId Id = 0

var lastId atomic.Uint64

// NewId returns an id that's unique within the process.
func NewId() Id {
	return Id(lastId.Add(1))
}

// NamedId derives a stable id from a name, so that every lookup of the same name lands
// on the same node.
func NamedId(name string) Id {
	// the top bit is reserved to keep named ids apart from sequential ones
	return Id(xxhash.Sum64String(name) | 1<<63)
}
