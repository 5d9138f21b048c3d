package memfs

import (
	"context"
	"io"
	"time"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
)

func timeNow() time.Time {
	return time.Now()
}

// FileOpen implements backend.Backend. Per spec.md §4.9 "Open": resolve the
// path; if found and is a file, optionally truncate and position the
// cursor; if not found and opening for write, create a new file node under
// the parent (failing if the parent is missing or not a directory).
func (b *Backend) FileOpen(ctx context.Context, path string, mode vfscommon.OpenMode) (backend.File, error) {
	token := rmutex.NewToken()
	b.mu.Lock(token)
	defer b.mu.Unlock(token)

	n, parent, name, err := b.resolve(path)
	if err != nil {
		return nil, err
	}

	switch {
	case n != nil:
		if n.kind != kindFile {
			return nil, vfscommon.ErrIsDirectory
		}
		if mode.Has(vfscommon.ModeWrite) && mode.Has(vfscommon.ModeExclusive) {
			return nil, vfscommon.ErrAlreadyExists
		}
		if mode.Has(vfscommon.ModeWrite) && mode.Has(vfscommon.ModeTruncate) {
			n.data = nil
		}
		n.accessTime = timeNow()
		f := &file{b: b, n: n}
		if mode.Has(vfscommon.ModeAppend) {
			f.pos = int64(len(n.data))
		}
		return f, nil

	case mode.Has(vfscommon.ModeWrite):
		if parent == nil {
			return nil, vfscommon.ErrDoesNotExist
		}
		if parent.kind != kindDir {
			return nil, vfscommon.ErrNotDirectory
		}
		now := timeNow()
		newNode := &node{name: name, kind: kindFile, modTime: now, accessTime: now, createTime: now}
		parent.addChild(newNode)
		return &file{b: b, n: newNode}, nil

	default:
		return nil, vfscommon.ErrDoesNotExist
	}
}

// file is an open handle against a node. Every operation re-acquires the
// backend's tree lock; the cursor itself is not shared state and needs no
// locking.
type file struct {
	b   *Backend
	n   *node
	pos int64
}

func (f *file) Read(p []byte) (int, error) {
	token := rmutex.NewToken()
	f.b.mu.Lock(token)
	defer f.b.mu.Unlock(token)

	if f.pos >= int64(len(f.n.data)) {
		return 0, vfscommon.ErrAtEnd
	}
	n := copy(p, f.n.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	token := rmutex.NewToken()
	f.b.mu.Lock(token)
	defer f.b.mu.Unlock(token)

	// New size is max(current size, cursor + len(p)); make() zero-fills
	// any gap between the old end and pos, per spec.md §4.9 "Write".
	newSize := f.pos + int64(len(p))
	if newSize < int64(len(f.n.data)) {
		newSize = int64(len(f.n.data))
	}
	if newSize > int64(len(f.n.data)) {
		grown := make([]byte, newSize)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	n := copy(f.n.data[f.pos:], p)
	f.pos += int64(n)
	f.n.modTime = timeNow()
	return n, nil
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	token := rmutex.NewToken()
	f.b.mu.Lock(token)
	defer f.b.mu.Unlock(token)

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		base = int64(len(f.n.data))
	default:
		return f.pos, vfscommon.ErrBadSeek
	}
	newPos := base + offset
	if newPos < 0 || newPos > int64(len(f.n.data)) {
		return f.pos, vfscommon.ErrBadSeek
	}
	f.pos = newPos
	return f.pos, nil
}

func (f *file) Tell() (int64, error) {
	return f.pos, nil
}

func (f *file) Truncate() error {
	token := rmutex.NewToken()
	f.b.mu.Lock(token)
	defer f.b.mu.Unlock(token)

	f.n.data = f.n.data[:f.pos]
	f.n.modTime = timeNow()
	return nil
}

func (f *file) Info() (backend.Info, error) {
	token := rmutex.NewToken()
	f.b.mu.Lock(token)
	defer f.b.mu.Unlock(token)
	return f.n.info(), nil
}

func (f *file) Duplicate() (backend.File, error) {
	return &file{b: f.b, n: f.n, pos: f.pos}, nil
}

func (f *file) Close() error { return nil }

var (
	_ backend.File      = (*file)(nil)
	_ backend.Truncater = (*file)(nil)
)
