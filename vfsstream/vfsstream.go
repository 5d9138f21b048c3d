// Package vfsstream implements the polymorphic byte-stream abstraction every
// backend and file handle is built on: read/write/seek/tell/duplicate over
// any byte source, per spec.md §3 "Stream".
package vfsstream

import "io"

// Stream is a polymorphic byte source/sink. Every backend.File offers the
// same operations, and package vfs adapts one to a Stream when it opens an
// archive; archive backends keep a Stream open against their underlying bytes.
type Stream interface {
	io.Reader
	io.Writer

	// Seek repositions the stream per io.Seeker semantics, returning the
	// new absolute offset. A seek outside [0, size] for streams that track
	// a fixed size returns a bad-seek error (MemStream returns ErrBadSeek).
	Seek(offset int64, whence int) (int64, error)

	// Tell returns the current offset, equivalent to Seek(0, io.SeekCurrent)
	// but without the seek-bounds side effects.
	Tell() (int64, error)

	// Duplicate returns a new Stream with an independent cursor over the
	// same underlying bytes. The duplicate must be closed independently.
	Duplicate() (Stream, error)

	// Close releases any resources the stream holds directly (not shared
	// with a duplicate's independent state).
	Close() error
}

// Closer is satisfied by every Stream; exported separately so callers that
// only need to release resources don't need the full interface.
type Closer = io.Closer
