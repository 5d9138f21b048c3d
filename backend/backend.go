// Package backend defines the capability set every storage provider
// implements, per spec.md §4.1. Concrete providers live in sibling packages
// (stdio, memfs, zipfs, proxy); the VFS core in package vfs drives them
// all through this interface.
//
// The original C design reports a byte size for backend/file state and has
// the core pre-allocate and own that memory (the alloc_size/init dance).
// That pattern exists only to avoid a second allocation in a language
// without generics or interfaces; in Go each backend simply owns its state
// directly and returns ordinary typed values, so alloc_size/file_alloc_size
// have no Go equivalent (see DESIGN.md).
package backend

import (
	"context"
	"io"
	"time"

	"github.com/vfscore/vfs/vfscommon"
)

// Info is the populated {size, directory?, symlink?, times} record spec.md
// §4.1 describes for both path-based Info and open-handle FileInfo.
type Info struct {
	Size       int64
	IsDir      bool
	IsSymlink  bool
	ModTime    time.Time
	AccessTime time.Time
	CreateTime time.Time
}

// File is a single open file handle. Every backend's file type satisfies
// this; File is also a stream (read/write/seek/tell/duplicate/close) as
// spec.md §3 requires.
type File interface {
	io.Reader
	io.Writer

	// Seek repositions the cursor. Implementations return
	// vfscommon.ErrBadSeek for an out-of-range target.
	Seek(offset int64, whence int) (int64, error)

	// Tell returns the current cursor offset.
	Tell() (int64, error)

	// Info populates file metadata from the open handle.
	Info() (Info, error)

	// Duplicate returns an independent handle over the same underlying
	// file, with its own cursor.
	Duplicate() (File, error)

	// Close releases the handle's resources.
	Close() error
}

// DirEntry is one entry yielded by directory iteration.
type DirEntry struct {
	Name string
	Info Info
}

// DirIterator enumerates a directory's entries. Next returns ok=false (with
// a nil error) once exhausted.
type DirIterator interface {
	Next() (entry DirEntry, ok bool, err error)
	Close() error
}

// Backend is the capability set every storage provider implements.
// Operations not listed here that spec.md marks optional (remove, rename,
// mkdir, truncate) are expressed as the narrower interfaces below; the core
// type-asserts for them and returns vfscommon.ErrNotImplemented when absent.
type Backend interface {
	// Close releases backend-wide state (the "uninit" operation).
	Close() error

	// Info populates metadata for path without opening it.
	Info(ctx context.Context, path string) (Info, error)

	// FileOpen opens or creates path per mode.
	FileOpen(ctx context.Context, path string, mode vfscommon.OpenMode) (File, error)

	// First begins a directory iteration over dir.
	First(ctx context.Context, dir string) (DirIterator, error)
}

// Remover is implemented by backends that support deleting a file or empty
// directory.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

// Renamer is implemented by backends that support an atomic-ish rename.
type Renamer interface {
	Rename(ctx context.Context, oldPath, newPath string) error
}

// Mkdirer is implemented by backends that support creating one directory
// level. Implementations return vfscommon.ErrAlreadyExists if path exists.
type Mkdirer interface {
	Mkdir(ctx context.Context, path string) error
}

// Truncater is implemented by files that support truncating at the current
// cursor.
type Truncater interface {
	Truncate() error
}

// ArchiveRefMarker is implemented by files opened against an archive's
// backend (see package proxy). The VFS core calls MarkArchiveReferenced on a
// file returned from transparent/verbose archive descent so that closing it
// also releases the implicit reference that descent took out on the
// archive, per spec.md §4.3/§4.5.
type ArchiveRefMarker interface {
	MarkArchiveReferenced()
}
