package vfs

import (
	"context"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
)

// archiveDescent implements spec.md §4.3: walk path's segments left to
// right, opening the first archive that resolves the remainder. Invoked
// only for read-mode, non-opaque opens that missed the direct path.
func (fs *FS) archiveDescent(ctx context.Context, token *rmutex.Token, path string, mode vfscommon.OpenMode, wantFile bool) (backend.File, backend.Info, error) {
	segs := vfspath.Segments(path)
	prefix := ""

	for i, seg := range segs {
		if seg == "." || seg == ".." {
			continue
		}

		if _, ok := fs.archiveTypes[vfspath.Ext(seg)]; ok {
			if i == len(segs)-1 {
				return nil, backend.Info{}, vfscommon.ErrDoesNotExist
			}
			archivePath := joinMountPath(prefix, seg)
			archiveFS, release, err := fs.openArchiveEx(ctx, token, archivePath)
			if err != nil {
				prefix = archivePath
				continue
			}
			remaining := vfspath.Join(segs[i+1:])
			f, info, derr := archiveFS.dispatch(ctx, rmutex.NewToken(), remaining, mode|vfscommon.ModeOpaque, wantFile)
			if derr != nil {
				release()
				return nil, backend.Info{}, derr
			}
			if wantFile {
				markArchiveReferenced(wantFile, f)
			} else {
				// No file handle carries the reference forward for an
				// info-only resolution, so release it immediately.
				release()
			}
			return f, info, nil
		}

		if mode.Has(vfscommon.ModeVerbose) {
			prefix = joinMountPath(prefix, seg)
			continue
		}

		it, err := fs.firstLocked(ctx, token, prefix, vfscommon.ModeOpaque)
		if err == nil {
			for {
				entry, ok, nerr := it.Next()
				if nerr != nil || !ok {
					break
				}
				if _, ok := fs.archiveTypes[vfspath.Ext(entry.Name)]; !ok {
					continue
				}
				siblingPath := joinMountPath(prefix, entry.Name)
				archiveFS, release, aerr := fs.openArchiveEx(ctx, token, siblingPath)
				if aerr != nil {
					continue
				}
				remaining := vfspath.Join(segs[i+1:])
				f, info, derr := archiveFS.dispatch(ctx, rmutex.NewToken(), remaining, mode|vfscommon.ModeOpaque, wantFile)
				if derr != nil {
					release()
					continue
				}
				it.Close()
				if wantFile {
					markArchiveReferenced(wantFile, f)
				} else {
					release()
				}
				return f, info, nil
			}
			it.Close()
		}

		prefix = joinMountPath(prefix, seg)
	}

	return nil, backend.Info{}, vfscommon.ErrDoesNotExist
}

// markArchiveReferenced flags a file handle returned from archive descent so
// that closing it also decrements the archive's cache refcount, per
// spec.md §4.3's "mark the returned file" and §4.5's proxy interception.
func markArchiveReferenced(wantFile bool, f backend.File) {
	if !wantFile || f == nil {
		return
	}
	if marker, ok := f.(backend.ArchiveRefMarker); ok {
		marker.MarkArchiveReferenced()
	}
}

// archiveDescentListing gathers directory entries from every archive
// reachable along dir's descent path, for the iterator-merge engine's
// archive-descent contribution (spec.md §4.10).
func (fs *FS) archiveDescentListing(ctx context.Context, token *rmutex.Token, dir string, mode vfscommon.OpenMode) []backend.DirEntry {
	var out []backend.DirEntry
	segs := vfspath.Segments(dir)
	prefix := ""

	for i, seg := range segs {
		if seg == "." || seg == ".." {
			continue
		}

		if _, ok := fs.archiveTypes[vfspath.Ext(seg)]; ok {
			archivePath := joinMountPath(prefix, seg)
			if archiveFS, release, err := fs.openArchiveEx(ctx, token, archivePath); err == nil {
				remaining := vfspath.Join(segs[i+1:])
				if it, err := archiveFS.First(ctx, remaining, vfscommon.ModeOpaque); err == nil {
					out = append(out, drainIterator(it)...)
				}
				// A listing never hands back a file to carry the
				// reference forward, so release it here.
				release()
			}
			prefix = archivePath
			continue
		}

		if !mode.Has(vfscommon.ModeVerbose) {
			if it, err := fs.firstLocked(ctx, token, prefix, vfscommon.ModeOpaque); err == nil {
				for {
					entry, ok, nerr := it.Next()
					if nerr != nil || !ok {
						break
					}
					if _, ok := fs.archiveTypes[vfspath.Ext(entry.Name)]; !ok {
						continue
					}
					siblingPath := joinMountPath(prefix, entry.Name)
					if archiveFS, release, err := fs.openArchiveEx(ctx, token, siblingPath); err == nil {
						remaining := vfspath.Join(segs[i+1:])
						if sit, err := archiveFS.First(ctx, remaining, vfscommon.ModeOpaque); err == nil {
							out = append(out, drainIterator(sit)...)
						}
						release()
					}
				}
				it.Close()
			}
		}

		prefix = joinMountPath(prefix, seg)
	}

	return out
}

func drainIterator(it backend.DirIterator) []backend.DirEntry {
	defer it.Close()
	var out []backend.DirEntry
	for {
		e, ok, err := it.Next()
		if err != nil || !ok {
			break
		}
		out = append(out, e)
	}
	return out
}
