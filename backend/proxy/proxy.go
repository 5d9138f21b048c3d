// Package proxy wraps any backend so that closing a file flagged as
// archive-referenced also releases the cache reference the VFS core took
// out during archive descent, per spec.md §4.5.
package proxy

import (
	"context"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/vfscommon"
)

// Backend delegates every operation to wrapped, except that files it opens
// are wrapped so their Close can invoke onRelease when the core flagged
// them via ArchiveRefMarker. archiveFile is the handle the archive's bytes
// were read from; closing the proxy closes it too, per spec.md §4.4's
// "close its archive file".
type Backend struct {
	wrapped     backend.Backend
	archiveFile backend.File
	onRelease   func()
}

// New wraps wrapped. archiveFile is retained as the archive's backing
// handle and closed alongside it. onRelease is invoked once per file Close
// where MarkArchiveReferenced was called on the returned handle first.
func New(wrapped backend.Backend, archiveFile backend.File, onRelease func()) *Backend {
	return &Backend{wrapped: wrapped, archiveFile: archiveFile, onRelease: onRelease}
}

func (b *Backend) Close() error {
	err := b.wrapped.Close()
	if cerr := b.archiveFile.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *Backend) Info(ctx context.Context, path string) (backend.Info, error) {
	return b.wrapped.Info(ctx, path)
}

func (b *Backend) FileOpen(ctx context.Context, path string, mode vfscommon.OpenMode) (backend.File, error) {
	f, err := b.wrapped.FileOpen(ctx, path, mode)
	if err != nil {
		return nil, err
	}
	return &file{File: f, onRelease: b.onRelease}, nil
}

func (b *Backend) First(ctx context.Context, dir string) (backend.DirIterator, error) {
	return b.wrapped.First(ctx, dir)
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	r, ok := b.wrapped.(backend.Remover)
	if !ok {
		return vfscommon.ErrNotImplemented
	}
	return r.Remove(ctx, path)
}

func (b *Backend) Rename(ctx context.Context, oldPath, newPath string) error {
	r, ok := b.wrapped.(backend.Renamer)
	if !ok {
		return vfscommon.ErrNotImplemented
	}
	return r.Rename(ctx, oldPath, newPath)
}

func (b *Backend) Mkdir(ctx context.Context, path string) error {
	m, ok := b.wrapped.(backend.Mkdirer)
	if !ok {
		return vfscommon.ErrNotImplemented
	}
	return m.Mkdir(ctx, path)
}

// file wraps a file opened through Backend so Close can trigger onRelease
// once the core has flagged it archive-referenced.
type file struct {
	backend.File
	referenced bool
	onRelease  func()
}

func (f *file) MarkArchiveReferenced() {
	f.referenced = true
}

func (f *file) Close() error {
	err := f.File.Close()
	if f.referenced && f.onRelease != nil {
		f.onRelease()
	}
	return err
}

var (
	_ backend.Backend         = (*Backend)(nil)
	_ backend.Remover         = (*Backend)(nil)
	_ backend.Renamer         = (*Backend)(nil)
	_ backend.Mkdirer         = (*Backend)(nil)
	_ backend.File            = (*file)(nil)
	_ backend.ArchiveRefMarker = (*file)(nil)
)
