package vfs

import (
	"context"
	"fmt"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
)

// Open resolves path and opens it for mode, per spec.md §4.2.
func (fs *FS) Open(ctx context.Context, path string, mode vfscommon.OpenMode) (backend.File, error) {
	token := rmutex.NewToken()
	f, _, err := fs.dispatch(ctx, token, path, mode, true)
	return f, err
}

// Stat resolves path and populates its metadata without opening it, per
// spec.md §4.2.
func (fs *FS) Stat(ctx context.Context, path string, mode vfscommon.OpenMode) (backend.Info, error) {
	token := rmutex.NewToken()
	_, info, err := fs.dispatch(ctx, token, path, mode, false)
	return info, err
}

// Mkdir creates the directory at path, creating any missing ancestors,
// through the longest-matching write mount, per spec.md §4.2's directory
// auto-creation rule.
func (fs *FS) Mkdir(ctx context.Context, path string) error {
	token := rmutex.NewToken()
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	m, rest, ok := fs.writeMounts.longestWriteMatch(path)
	if !ok {
		return vfscommon.ErrDoesNotExist
	}
	return mkdirAll(ctx, fs.backend, joinMountPath(m.Source, rest))
}

// openLocked is the same-FS recursive entry point used by archive descent
// and the archive cache: it reuses token, so it must only be called while
// fs.lock is already held by that token (directly or reentrantly).
func (fs *FS) openLocked(ctx context.Context, token *rmutex.Token, path string, mode vfscommon.OpenMode) (backend.File, error) {
	f, _, err := fs.dispatch(ctx, token, path, mode, true)
	return f, err
}

// dispatch implements the shared open/info resolution algorithm of spec.md
// §4.2: path validation, write-mount longest match, read-mount priority
// walk, direct backend fallback, and — on a miss in non-opaque non-write
// modes — archive descent.
func (fs *FS) dispatch(ctx context.Context, token *rmutex.Token, path string, mode vfscommon.OpenMode, wantFile bool) (backend.File, backend.Info, error) {
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	if mode.Has(vfscommon.ModeNoSpecialDirs) && vfspath.HasSpecialSegments(path) {
		return nil, backend.Info{}, vfscommon.ErrInvalidArgs
	}
	if mode.Has(vfscommon.ModeNoAboveRootNavigation) {
		if _, escaped := vfspath.Clean(path); escaped {
			return nil, backend.Info{}, vfscommon.ErrAccessDenied
		}
	}

	if mode.Has(vfscommon.ModeWrite) {
		return fs.dispatchWrite(ctx, token, path, mode, wantFile)
	}

	if !mode.Has(vfscommon.ModeIgnoreMounts) {
		if f, info, err, ok := fs.tryReadMounts(ctx, token, path, mode, wantFile); ok {
			return f, info, err
		}
	}

	var lastErr error = vfscommon.ErrDoesNotExist
	if !mode.Has(vfscommon.ModeOnlyMounts) {
		f, info, err := fs.leafTry(ctx, fs.backend, path, mode, wantFile)
		if err == nil {
			return f, info, nil
		}
		lastErr = err
	}

	if !mode.Has(vfscommon.ModeOpaque) {
		if lastErr == vfscommon.ErrDoesNotExist || lastErr == vfscommon.ErrNotDirectory {
			f, info, err := fs.archiveDescent(ctx, token, path, mode, wantFile)
			if err == nil {
				return f, info, nil
			}
			lastErr = err
		}
	}

	return nil, backend.Info{}, lastErr
}

func (fs *FS) dispatchWrite(ctx context.Context, token *rmutex.Token, path string, mode vfscommon.OpenMode, wantFile bool) (backend.File, backend.Info, error) {
	m, rest, ok := fs.writeMounts.longestWriteMatch(path)
	if !ok {
		return nil, backend.Info{}, vfscommon.ErrDoesNotExist
	}
	rewritten := joinMountPath(m.Source, rest)

	if !mode.Has(vfscommon.ModeNoCreateDirs) {
		if err := mkdirAll(ctx, fs.backend, vfspath.Dir(rewritten)); err != nil {
			return nil, backend.Info{}, err
		}
	}

	return fs.leafTry(ctx, fs.backend, rewritten, mode|vfscommon.ModeIgnoreMounts, wantFile)
}

// tryReadMounts walks the read-mount list in priority order, per spec.md
// §4.2 step 3. It returns the first successful result among the matching
// mounts, with ok=true; a matching mount whose open fails is skipped in favour
// of the next one. ok is false when no matching mount succeeded.
func (fs *FS) tryReadMounts(ctx context.Context, token *rmutex.Token, path string, mode vfscommon.OpenMode, wantFile bool) (backend.File, backend.Info, error, bool) {
	for _, m := range fs.readMounts.snapshot() {
		rest, matched := vfspath.TrimPrefix(path, m.Prefix)
		if !matched {
			continue
		}

		var f backend.File
		var info backend.Info
		var err error
		if m.Archive != nil {
			f, info, err = m.Archive.dispatch(ctx, rmutex.NewToken(), rest, mode, wantFile)
		} else {
			rewritten := joinMountPath(m.Source, rest)
			f, info, err = fs.leafTry(ctx, fs.backend, rewritten, mode|vfscommon.ModeIgnoreMounts, wantFile)
		}
		if err == nil {
			return f, info, nil, true
		}
	}
	return nil, backend.Info{}, nil, false
}

func (fs *FS) leafTry(ctx context.Context, b backend.Backend, path string, mode vfscommon.OpenMode, wantFile bool) (backend.File, backend.Info, error) {
	if wantFile {
		f, err := b.FileOpen(ctx, path, mode)
		return f, backend.Info{}, err
	}
	info, err := b.Info(ctx, path)
	return nil, info, err
}

func joinMountPath(source, rest string) string {
	if rest == "" {
		return source
	}
	if source == "" {
		return rest
	}
	return fmt.Sprintf("%s/%s", source, rest)
}
