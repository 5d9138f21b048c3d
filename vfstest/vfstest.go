// Package vfstest provides a small harness for exercising the vfs package
// against a real temporary directory, mirroring the teacher's fstest.Run
// helper shape.
package vfstest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vfscore/vfs"
	"github.com/vfscore/vfs/backend/stdio"
)

// Run creates a fresh FS rooted at a temporary directory with the ZIP
// archive type registered, and hands it to fn alongside the directory's
// native path (for seeding fixture files directly through os).
func Run(t *testing.T, fn func(fs *vfs.FS, root string)) {
	t.Helper()
	root := t.TempDir()
	b, err := stdio.New(root)
	require.NoError(t, err)

	f := vfs.New(b)
	f.RegisterZip()
	defer f.Close()

	fn(f, root)
}

// WriteFile writes contents to name under root using native os calls, for
// seeding fixtures outside the vfs.FS under test.
func WriteFile(t *testing.T, root, name string, contents []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(root+string(os.PathSeparator)+name, contents, 0o644))
}
