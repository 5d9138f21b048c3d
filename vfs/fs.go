// Package vfs implements the backend-agnostic virtual filesystem core:
// mount lists, the open/info dispatch algorithm, archive descent, the
// opened-archive cache and its GC policies, and the iterator-merge engine,
// per spec.md §3 and §4.2-§4.6/§4.10.
package vfs

import (
	"context"
	"fmt"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfslog"
	"github.com/vfscore/vfs/vfspath"
	"github.com/vfscore/vfs/vfsstream"
)

// ArchiveOpener constructs a backend over an already-open archive stream,
// e.g. zipfs.New. Registered per file extension in an FS's archive-types
// registry.
type ArchiveOpener func(ctx context.Context, stream vfsstream.Stream) (backend.Backend, error)

// FS is one filesystem handle: a backend, its mount lists, its opened-
// archive cache, and the archive-types registry it either owns or borrows
// from a parent, per spec.md §3 "Filesystem handle".
type FS struct {
	backend backend.Backend

	lock *rmutex.RMutex

	readMounts  mountList
	writeMounts mountList

	archiveTypes     map[string]ArchiveOpener
	ownsArchiveTypes bool

	cache       []*archiveCacheEntry
	gcThreshold int
}

// New creates an FS rooted at b, with its own (owned) archive-types
// registry and default GC threshold, per spec.md §3/§4.4.
func New(b backend.Backend) *FS {
	return &FS{
		backend:          b,
		lock:             rmutex.New(),
		archiveTypes:     make(map[string]ArchiveOpener),
		ownsArchiveTypes: true,
		gcThreshold:      vfscommon.DefaultGCThreshold,
	}
}

// RegisterArchiveType binds ext (e.g. ".zip") to opener so archive descent
// and explicit archive references recognize files with that extension, per
// spec.md §4.1's archive-types registry.
func (fs *FS) RegisterArchiveType(ext string, opener ArchiveOpener) {
	fs.archiveTypes[ext] = opener
}

// SetGCThreshold overrides the default THRESHOLD GC policy's limit (see
// spec.md §4.4).
func (fs *FS) SetGCThreshold(n int) {
	fs.gcThreshold = n
}

// Mount registers a directory mount: the contents of the backend rooted at
// source become visible under prefix. priority controls read-mount ordering
// (HIGHEST inserts at the head); write resolution always uses longest-
// prefix match regardless of insertion priority, per spec.md §4.6.
func (fs *FS) Mount(source, prefix string, priority vfscommon.MountPriority, writable bool) error {
	token := rmutex.NewToken()
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	m := &Mount{Source: source, Prefix: prefix}
	inserted := fs.readMounts.insert(m, priority)
	if writable {
		wm := &Mount{Source: source, Prefix: prefix}
		if !fs.writeMounts.insert(wm, priority) {
			inserted = false
		}
	}
	if !inserted {
		vfslog.Debugf(nil, "vfs: mount %s -> %s already present, skipped", prefix, source)
	}
	return nil
}

// MountArchive registers archiveFS (an already-open FS, e.g. one created with
// New over an archive backend) as a read-only mount under prefix.
func (fs *FS) MountArchive(archiveFS *FS, prefix string, priority vfscommon.MountPriority, closeOnUnmount bool) {
	token := rmutex.NewToken()
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	m := &Mount{Prefix: prefix, Archive: archiveFS, CloseOnUnmount: closeOnUnmount}
	fs.readMounts.insert(m, priority)
}

// Unmount removes the first read (and, if present, matching write) mount
// registered at prefix for source, closing the mounted archive if it was
// registered with closeOnUnmount.
func (fs *FS) Unmount(source, prefix string) error {
	token := rmutex.NewToken()
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	removed := fs.readMounts.remove(prefix, source)
	fs.writeMounts.remove(prefix, source)
	if removed != nil && removed.Archive != nil && removed.CloseOnUnmount {
		return removed.Archive.Close()
	}
	return nil
}

// Close releases fs's backend and every cache-resident archive it still
// owns, regardless of refcount: Close is a hard shutdown, not GC.
func (fs *FS) Close() error {
	token := rmutex.NewToken()
	fs.lock.Lock(token)
	entries := fs.cache
	fs.cache = nil
	fs.lock.Unlock(token)

	var firstErr error
	for _, e := range entries {
		if err := e.fs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := fs.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// mkdirAll creates each segment of dir on b in turn, treating
// ErrAlreadyExists as success, per spec.md §4.2 "Directory auto-creation".
func mkdirAll(ctx context.Context, b backend.Backend, dir string) error {
	if dir == "" {
		return nil
	}
	mkdirer, ok := b.(backend.Mkdirer)
	if !ok {
		return vfscommon.ErrNotImplemented
	}
	segs := vfspath.Segments(dir)
	built := ""
	for _, seg := range segs {
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}
		if err := mkdirer.Mkdir(ctx, built); err != nil && err != vfscommon.ErrAlreadyExists {
			return fmt.Errorf("vfs: mkdir %s: %w", built, err)
		}
	}
	return nil
}
