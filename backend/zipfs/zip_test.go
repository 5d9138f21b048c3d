package zipfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfsstream"
)

func buildZip(t *testing.T, entries map[string]struct {
	contents string
	method   uint16
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, e := range entries {
		hdr := &zip.FileHeader{Name: name, Method: e.method}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readAllFile(t *testing.T, f *file) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 7) // deliberately awkward size to exercise buffering
	for {
		n, err := f.Read(buf)
		out = append(out, buf[:n]...)
		if err == vfscommon.ErrAtEnd {
			return out
		}
		require.NoError(t, err)
		if n == 0 {
			return out
		}
	}
}

func TestDeflateAndStoredContentEquivalence(t *testing.T) {
	const content = "the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated again and again."

	data := buildZip(t, map[string]struct {
		contents string
		method   uint16
	}{
		"stored.txt":  {content, zip.Store},
		"deflate.txt": {content, zip.Deflate},
	})

	b, err := New(context.Background(), vfsstream.NewReadOnly(data))
	require.NoError(t, err)
	defer b.Close()

	storedFile, err := b.FileOpen(context.Background(), "stored.txt", vfscommon.ModeRead)
	require.NoError(t, err)
	defer storedFile.Close()
	deflateFile, err := b.FileOpen(context.Background(), "deflate.txt", vfscommon.ModeRead)
	require.NoError(t, err)
	defer deflateFile.Close()

	assert.Equal(t, []byte(content), readAllFile(t, storedFile.(*file)))
	assert.Equal(t, []byte(content), readAllFile(t, deflateFile.(*file)))
}

func TestSeekBackwardThenRereadMatchesFreshRead(t *testing.T) {
	const content = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	data := buildZip(t, map[string]struct {
		contents string
		method   uint16
	}{
		"a.bin": {content, zip.Deflate},
	})

	b, err := New(context.Background(), vfsstream.NewReadOnly(data))
	require.NoError(t, err)
	defer b.Close()

	bf, err := b.FileOpen(context.Background(), "a.bin", vfscommon.ModeRead)
	require.NoError(t, err)
	defer bf.Close()
	f := bf.(*file)

	first := make([]byte, 40)
	n, err := f.Read(first)
	require.NoError(t, err)
	require.Equal(t, 40, n)

	pos, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos)

	reread := readAllFile(t, f)
	assert.Equal(t, []byte(content), reread)

	// The cursor is now at the end, so this is a backward seek (decoder reset,
	// then read-discard) followed by a read of the tail.
	pos, err = f.Seek(int64(len(content)-5), io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)-5), pos)
	tail := make([]byte, 5)
	n, err = f.Read(tail)
	require.NoError(t, err)
	assert.Equal(t, content[len(content)-5:], string(tail[:n]))
}

func TestDirectoryListingAndInfo(t *testing.T) {
	data := buildZip(t, map[string]struct {
		contents string
		method   uint16
	}{
		"dir/one.txt": {"1", zip.Store},
		"dir/two.txt": {"22", zip.Deflate},
		"root.txt":    {"r", zip.Store},
	})

	b, err := New(context.Background(), vfsstream.NewReadOnly(data))
	require.NoError(t, err)
	defer b.Close()

	info, err := b.Info(context.Background(), "dir")
	require.NoError(t, err)
	assert.True(t, info.IsDir)

	it, err := b.First(context.Background(), "dir")
	require.NoError(t, err)
	defer it.Close()

	var names []string
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"one.txt", "two.txt"}, names)

	rootInfo, err := b.Info(context.Background(), "root.txt")
	require.NoError(t, err)
	assert.False(t, rootInfo.IsDir)
	assert.Equal(t, int64(1), rootInfo.Size)
}

func TestPromoteZip64UsesExtraFieldOnlyForSentinels(t *testing.T) {
	extra := make([]byte, 4+24)
	binary.LittleEndian.PutUint16(extra[0:], zip64ExtraID)
	binary.LittleEndian.PutUint16(extra[2:], 24)
	binary.LittleEndian.PutUint64(extra[4:], 1<<32+5)  // uncompressed
	binary.LittleEndian.PutUint64(extra[12:], 1<<32+6) // compressed
	binary.LittleEndian.PutUint64(extra[20:], 1<<32+7) // local header offset

	comp, uncomp, off := promoteZip64(extra, int64(sentinel32), int64(sentinel32), int64(sentinel32))
	assert.Equal(t, int64(1<<32+6), comp)
	assert.Equal(t, int64(1<<32+5), uncomp)
	assert.Equal(t, int64(1<<32+7), off)

	// Non-sentinel values are left untouched even with a Zip64 extra field present.
	comp, uncomp, off = promoteZip64(extra, 100, 200, 300)
	assert.Equal(t, int64(100), comp)
	assert.Equal(t, int64(200), uncomp)
	assert.Equal(t, int64(300), off)
}
