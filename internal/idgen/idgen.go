// Package idgen mints opaque, process-unique string identifiers for
// enemies, items, and events. Only local uniqueness is required — nothing
// in the core needs cross-process coordination — so a monotonic counter
// suffixed to a fixed prefix is sufficient.
package idgen

import (
	"fmt"
	"sync/atomic"
)

// Generator produces a stream of opaque ids sharing one prefix.
type Generator struct {
	prefix  string
	counter atomic.Uint64
}

// New returns a Generator whose ids are formatted "<prefix>-<n>".
func New(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Next returns the next opaque id. Safe for concurrent use.
func (g *Generator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s-%d", g.prefix, n)
}
