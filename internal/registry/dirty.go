package registry

import "sync/atomic"

// Dirty is the single-bit "something changed" signal described in
// SPEC_FULL.md §4.7. Every mutation path calls Set; the renderer calls
// Swap to read-and-clear it before building a frame.
type Dirty struct {
	flag atomic.Bool
}

// Set raises the dirty flag.
func (d *Dirty) Set() { d.flag.Store(true) }

// Swap atomically reads the current value and clears it to false,
// matching the renderer's "swap to false before building a frame"
// contract.
func (d *Dirty) Swap() bool { return d.flag.Swap(false) }

// Peek reads the current value without clearing it.
func (d *Dirty) Peek() bool { return d.flag.Load() }
