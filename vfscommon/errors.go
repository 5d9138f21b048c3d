package vfscommon

import "errors"

// Sentinel errors mirroring spec.md §6's abstract error-code taxonomy.
// Backends and the VFS core return these directly, or wrap them with
// fmt.Errorf("...: %w", err) for extra context; callers compare with
// errors.Is.
var (
	ErrGeneric            = errors.New("vfs: error")
	ErrInvalidArgs        = errors.New("vfs: invalid arguments")
	ErrInvalidOperation   = errors.New("vfs: invalid operation")
	ErrInvalidFile        = errors.New("vfs: invalid or corrupt file")
	ErrNotImplemented     = errors.New("vfs: not implemented")
	ErrOutOfMemory        = errors.New("vfs: out of memory")
	ErrAccessDenied       = errors.New("vfs: access denied")
	ErrDoesNotExist       = errors.New("vfs: does not exist")
	ErrAlreadyExists      = errors.New("vfs: already exists")
	ErrNotDirectory       = errors.New("vfs: not a directory")
	ErrIsDirectory        = errors.New("vfs: is a directory")
	ErrDirectoryNotEmpty  = errors.New("vfs: directory not empty")
	ErrAtEnd              = errors.New("vfs: at end of stream")
	ErrBadSeek            = errors.New("vfs: invalid seek")
	ErrTooBig             = errors.New("vfs: too big")
	ErrNeedsMoreInput     = errors.New("vfs: needs more input")
	ErrHasMoreOutput      = errors.New("vfs: has more output")
	ErrChecksumMismatch   = errors.New("vfs: checksum mismatch")
	ErrNoBackend          = errors.New("vfs: no backend registered for this archive type")
)
