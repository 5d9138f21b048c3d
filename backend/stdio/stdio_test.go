package stdio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfscore/vfs/vfscommon"
)

func TestHelloOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello\n"), 0o644))

	ctx := context.Background()
	b, err := New(dir)
	require.NoError(t, err)

	f, err := b.FileOpen(ctx, "hello.txt", vfscommon.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(asReader(f))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\n"), data)
}

type asReader = readerAdapter

type readerAdapter struct {
	f interface{ Read([]byte) (int, error) }
}

func (a readerAdapter) Read(p []byte) (int, error) {
	n, err := a.f.Read(p)
	if err == vfscommon.ErrAtEnd {
		err = io.EOF
	}
	return n, err
}

func TestRoundTripAndInfo(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := New(dir)
	require.NoError(t, err)

	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite|vfscommon.ModeRead)
	require.NoError(t, err)
	n, err := f.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.NoError(t, f.Close())

	info, err := b.Info(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size)
}

func TestDuplicateIndependentCursor(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := New(dir)
	require.NoError(t, err)

	f, err := b.FileOpen(ctx, "a.txt", vfscommon.ModeWrite|vfscommon.ModeRead)
	require.NoError(t, err)
	_, _ = f.Write([]byte("hello world"))
	_, _ = f.Seek(0, io.SeekStart)

	dup, err := f.Duplicate()
	require.NoError(t, err)
	defer dup.Close()

	buf := make([]byte, 5)
	_, _ = dup.Read(buf)

	tell, _ := f.Tell()
	assert.Equal(t, int64(0), tell)
}

func TestMkdirAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, b.Mkdir(ctx, "sub"))
	err = b.Mkdir(ctx, "sub")
	assert.Equal(t, vfscommon.ErrAlreadyExists, err)
}

func TestIteratorSortedNames(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := New(dir)
	require.NoError(t, err)

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
