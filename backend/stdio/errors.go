package stdio

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/vfscore/vfs/vfscommon"
)

// translateErr maps os/io errors onto the abstract error taxonomy in
// spec.md §6, so callers of the backend package never need to know they're
// talking to the stdio backend specifically.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return vfscommon.ErrDoesNotExist
	case errors.Is(err, fs.ErrExist):
		return vfscommon.ErrAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return vfscommon.ErrAccessDenied
	case errors.Is(err, syscall.ENOTDIR):
		return vfscommon.ErrNotDirectory
	default:
		return err
	}
}
