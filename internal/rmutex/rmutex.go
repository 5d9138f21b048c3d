// Package rmutex implements a token-based recursive mutex, used by the VFS
// core's archive lock and the memory backend's tree lock — both of which
// must support re-entrant acquisition along the same logical call chain
// (archive descent can open nested archives against the same FS; memory
// backend operations call each other while already holding the tree lock).
//
// Go has no notion of "the current goroutine" a library can read safely, so
// recursion is tracked explicitly: callers carry a *Token for the duration
// of one call chain and pass it to every Lock/Unlock.
package rmutex

import "sync"

// Token identifies one logical call chain holding (or trying to hold) an
// RMutex. Callers create one with NewToken at the top of a call chain and
// thread it through any re-entrant calls.
type Token struct{}

// NewToken returns a fresh ownership token.
func NewToken() *Token {
	return &Token{}
}

// RMutex is a mutex that its current owner Token may lock multiple times in
// a row, provided it unlocks the same number of times. Acquisition by a
// different token blocks until the mutex is fully released.
type RMutex struct {
	guard sync.Mutex
	free  sync.Cond
	owner *Token
	depth int
}

// New returns a ready-to-use RMutex.
func New() *RMutex {
	m := &RMutex{}
	m.free.L = &m.guard
	return m
}

// Lock acquires the mutex for owner, recursing if owner already holds it.
func (m *RMutex) Lock(owner *Token) {
	m.guard.Lock()
	defer m.guard.Unlock()
	for m.owner != nil && m.owner != owner {
		m.free.Wait()
	}
	m.owner = owner
	m.depth++
}

// Unlock releases one level of recursion for owner.
func (m *RMutex) Unlock(owner *Token) {
	m.guard.Lock()
	defer m.guard.Unlock()
	if m.owner != owner {
		panic("rmutex: Unlock by non-owner")
	}
	m.depth--
	if m.depth == 0 {
		m.owner = nil
		m.free.Signal()
	}
}
