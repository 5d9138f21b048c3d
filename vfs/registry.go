package vfs

import (
	"context"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/backend/zipfs"
	"github.com/vfscore/vfs/vfsstream"
)

// RegisterZip binds the zipfs backend under zipfs.Extension, the common
// case for an FS that wants transparent ZIP descent.
func (fs *FS) RegisterZip() {
	fs.RegisterArchiveType(zipfs.Extension, func(ctx context.Context, stream vfsstream.Stream) (backend.Backend, error) {
		return zipfs.New(ctx, stream)
	})
}
