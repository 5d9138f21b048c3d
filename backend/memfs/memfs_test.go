package memfs

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfscore/vfs/vfscommon"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite)
	require.NoError(t, err)
	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, f.Close())

	f2, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeRead)
	require.NoError(t, err)
	data, err := io.ReadAll(readerFunc(f2.Read))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := b.Info(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.False(t, info.IsDir)
}

// readerFunc adapts a Read method value to io.Reader, translating
// vfscommon.ErrAtEnd (this backend's EOF signal) to io.EOF for io.ReadAll.
type readerFunc func([]byte) (int, error)

func (r readerFunc) Read(p []byte) (int, error) {
	n, err := r(p)
	if err == vfscommon.ErrAtEnd {
		err = io.EOF
	}
	return n, err
}

func TestReadPastEnd(t *testing.T) {
	ctx := context.Background()
	b := New()
	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite)
	require.NoError(t, err)
	_, _ = f.Write([]byte("hi"))
	_, _ = f.Seek(0, io.SeekEnd)

	n, err := f.Read(make([]byte, 10))
	assert.Equal(t, 0, n)
	assert.Equal(t, vfscommon.ErrAtEnd, err)
}

func TestSeekArithmetic(t *testing.T) {
	ctx := context.Background()
	b := New()
	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite)
	require.NoError(t, err)
	_, _ = f.Write([]byte("0123456789"))

	pos, err := f.Seek(-3, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	_, err = f.Seek(100, io.SeekStart)
	assert.Equal(t, vfscommon.ErrBadSeek, err)

	_, err = f.Seek(-1, io.SeekStart)
	assert.Equal(t, vfscommon.ErrBadSeek, err)
}

func TestDuplicateIndependence(t *testing.T) {
	ctx := context.Background()
	b := New()
	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite)
	require.NoError(t, err)
	_, _ = f.Write([]byte("hello world"))
	_, _ = f.Seek(0, io.SeekStart)

	dup, err := f.Duplicate()
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, _ = dup.Read(buf)

	tell, _ := f.Tell()
	assert.Equal(t, int64(0), tell)
}

func TestMkdirRemoveRename(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.NoError(t, b.Mkdir(ctx, "dir"))
	err := b.Mkdir(ctx, "dir")
	assert.Equal(t, vfscommon.ErrAlreadyExists, err)

	f, err := b.FileOpen(ctx, "dir/a.txt", vfscommon.ModeWrite)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = b.Remove(ctx, "dir")
	assert.Equal(t, vfscommon.ErrDirectoryNotEmpty, err)

	require.NoError(t, b.Rename(ctx, "dir/a.txt", "dir/b.txt"))
	_, err = b.Info(ctx, "dir/a.txt")
	assert.Equal(t, vfscommon.ErrDoesNotExist, err)
	_, err = b.Info(ctx, "dir/b.txt")
	require.NoError(t, err)

	require.NoError(t, b.Remove(ctx, "dir/b.txt"))
	require.NoError(t, b.Remove(ctx, "dir"))
}

func TestRemoveRootRefused(t *testing.T) {
	ctx := context.Background()
	b := New()
	err := b.Remove(ctx, "")
	assert.Error(t, err)
}

func TestIteratorCompleteness(t *testing.T) {
	ctx := context.Background()
	b := New()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		f, err := b.FileOpen(ctx, name, vfscommon.ModeWrite)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	it, err := b.First(ctx, "")
	require.NoError(t, err)
	var names []string
	for {
		entry, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}
