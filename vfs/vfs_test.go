package vfs_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfscore/vfs"
	"github.com/vfscore/vfs/backend/stdio"
	"github.com/vfscore/vfs/vfscommon"
)

func newStdioFS(t *testing.T) (*vfs.FS, string) {
	t.Helper()
	root := t.TempDir()
	b, err := stdio.New(root)
	require.NoError(t, err)
	f := vfs.New(b)
	f.RegisterZip()
	return f, root
}

func writeZipFixture(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readAll(t *testing.T, f interface {
	Read([]byte) (int, error)
}) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 64)
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

func TestOpenFromArchiveExplicit(t *testing.T) {
	fs, root := newStdioFS(t)
	defer fs.Close()
	writeZipFixture(t, root+"/pkg.zip", map[string]string{"readme": "archived content"})

	f, err := fs.Open(context.Background(), "pkg.zip/readme", vfscommon.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []byte("archived content"), readAll(t, f))
}

func TestOpenFromArchiveTransparent(t *testing.T) {
	fs, root := newStdioFS(t)
	defer fs.Close()
	writeZipFixture(t, root+"/pkg.zip", map[string]string{"readme": "archived content"})

	f, err := fs.Open(context.Background(), "pkg/readme", vfscommon.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []byte("archived content"), readAll(t, f))
}

func TestMountPriority(t *testing.T) {
	fs, root := newStdioFS(t)
	defer fs.Close()

	require.NoError(t, os.Mkdir(root+"/high", 0o755))
	require.NoError(t, os.Mkdir(root+"/low", 0o755))
	require.NoError(t, os.WriteFile(root+"/high/a.txt", []byte("H"), 0o644))
	require.NoError(t, os.WriteFile(root+"/low/a.txt", []byte("L"), 0o644))

	require.NoError(t, fs.Mount("high", "/data", vfscommon.MountHighest, false))
	require.NoError(t, fs.Mount("low", "/data", vfscommon.MountLowest, false))

	f, err := fs.Open(context.Background(), "/data/a.txt", vfscommon.ModeRead)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []byte("H"), readAll(t, f))
}

func TestWriteMountLongestMatch(t *testing.T) {
	fs, root := newStdioFS(t)
	defer fs.Close()

	require.NoError(t, os.MkdirAll(root+"/cfg/global", 0o755))

	require.NoError(t, fs.Mount("cfg", "/c", vfscommon.MountLowest, true))
	require.NoError(t, fs.Mount("cfg/global", "/c/global", vfscommon.MountHighest, true))

	f, err := fs.Open(context.Background(), "/c/global/settings.ini", vfscommon.ModeWrite|vfscommon.ModeTruncate)
	require.NoError(t, err)
	_, err = f.Write([]byte("x=1"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := os.ReadFile(root + "/cfg/global/settings.ini")
	require.NoError(t, err)
	assert.Equal(t, "x=1", string(got))
}

func TestArchiveCacheRefcountAndGC(t *testing.T) {
	fs, root := newStdioFS(t)
	defer fs.Close()
	writeZipFixture(t, root+"/a.zip", map[string]string{"one": "1", "two": "2"})

	f1, err := fs.Open(context.Background(), "a.zip/one", vfscommon.ModeRead)
	require.NoError(t, err)
	f2, err := fs.Open(context.Background(), "a.zip/two", vfscommon.ModeRead)
	require.NoError(t, err)

	require.NoError(t, f1.Close())
	require.NoError(t, f2.Close())

	fs.SetGCThreshold(0)
	fs.GC(vfscommon.GCThreshold)

	// Reopening after GC must still succeed and serve the archived bytes.
	f3, err := fs.Open(context.Background(), "a.zip/one", vfscommon.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), readAll(t, f3))
	require.NoError(t, f3.Close())
}

func TestAboveRootRefused(t *testing.T) {
	fs, _ := newStdioFS(t)
	defer fs.Close()

	_, err := fs.Stat(context.Background(), "a/../../etc", vfscommon.ModeRead|vfscommon.ModeNoAboveRootNavigation)
	assert.Equal(t, vfscommon.ErrAccessDenied, err)
}
