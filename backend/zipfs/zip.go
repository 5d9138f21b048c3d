package zipfs

import (
	"context"
	"sort"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
	"github.com/vfscore/vfs/vfsstream"
)

// Extension is the file extension this backend registers under.
const Extension = ".zip"

// Backend is a read-only ZIP archive backend: central-directory parse,
// accelerated lookup tree, and DEFLATE/stored streaming, per spec.md §4.7.
type Backend struct {
	stream vfsstream.Stream
	files  []fileInfo
	tree   *treeNode
}

// New parses stream as a ZIP archive. stream is retained and duplicated per
// open file handle; New does not take ownership of closing it beyond what
// Close releases.
func New(ctx context.Context, stream vfsstream.Stream) (*Backend, error) {
	e, err := findEOCD(stream)
	if err != nil {
		return nil, err
	}
	files, err := loadCentralDirectory(stream, e)
	if err != nil {
		return nil, err
	}
	return &Backend{
		stream: stream,
		files:  files,
		tree:   buildTree(files),
	}, nil
}

func (b *Backend) Close() error {
	return b.stream.Close()
}

func (b *Backend) find(path string) (*treeNode, *fileInfo) {
	segs := vfspath.Segments(path)
	n := b.tree.lookup(segs)
	if n == nil {
		return nil, nil
	}
	if n.fileIndex < 0 {
		return n, nil
	}
	return n, &b.files[n.fileIndex]
}

func (b *Backend) Info(ctx context.Context, path string) (backend.Info, error) {
	n, fi := b.find(path)
	if n == nil {
		return backend.Info{}, vfscommon.ErrDoesNotExist
	}
	if fi == nil {
		return backend.Info{IsDir: true}, nil
	}
	return backend.Info{
		Size:  fi.uncompressedSize,
		IsDir: fi.isDir,
	}, nil
}

func (b *Backend) First(ctx context.Context, dir string) (backend.DirIterator, error) {
	segs := vfspath.Segments(dir)
	n := b.tree.lookup(segs)
	if n == nil {
		return nil, vfscommon.ErrDoesNotExist
	}
	if n.fileIndex >= 0 && !b.files[n.fileIndex].isDir {
		return nil, vfscommon.ErrNotDirectory
	}
	children := append([]*treeNode(nil), n.children...)
	sort.Slice(children, func(i, j int) bool { return lessPath(children[i].name, children[j].name) })
	return &dirIterator{b: b, children: children}, nil
}

type dirIterator struct {
	b        *Backend
	children []*treeNode
	idx      int
}

func (it *dirIterator) Next() (backend.DirEntry, bool, error) {
	if it.idx >= len(it.children) {
		return backend.DirEntry{}, false, nil
	}
	c := it.children[it.idx]
	it.idx++
	info := backend.Info{IsDir: true}
	if c.fileIndex >= 0 {
		fi := it.b.files[c.fileIndex]
		info = backend.Info{Size: fi.uncompressedSize, IsDir: fi.isDir}
	}
	return backend.DirEntry{Name: c.name, Info: info}, true, nil
}

func (it *dirIterator) Close() error { return nil }

// FileOpen opens a ZIP member for reading. Writes are unsupported: §4.7
// "Writes and mutations".
func (b *Backend) FileOpen(ctx context.Context, path string, mode vfscommon.OpenMode) (backend.File, error) {
	if mode.Has(vfscommon.ModeWrite) {
		return nil, vfscommon.ErrNotImplemented
	}
	_, fi := b.find(path)
	if fi == nil {
		return nil, vfscommon.ErrDoesNotExist
	}
	if fi.isDir {
		return nil, vfscommon.ErrIsDirectory
	}
	if fi.method != methodStore && fi.method != methodDeflate {
		return nil, vfscommon.ErrNotImplemented
	}
	return newFile(b, *fi)
}

var _ backend.Backend = (*Backend)(nil)
