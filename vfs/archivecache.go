package vfs

import (
	"context"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/backend/proxy"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
	"github.com/vfscore/vfs/vfsstream"
)

// archiveCacheEntry is one opened-archive record, per spec.md §3
// "Opened-archive entry": a cache key (the canonical source path), the
// archive's own FS, and a reference count incremented on cache hit and
// decremented on every referencing file's close.
type archiveCacheEntry struct {
	path     string
	fs       *FS
	refcount int
}

// fileStream adapts a backend.File to vfsstream.Stream so it can serve as
// the input to an ArchiveOpener, per spec.md §4.4 "the stream is actually a
// File, which is a stream".
type fileStream struct {
	f backend.File
}

func (s fileStream) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s fileStream) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s fileStream) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}
func (s fileStream) Tell() (int64, error) { return s.f.Tell() }
func (s fileStream) Duplicate() (vfsstream.Stream, error) {
	d, err := s.f.Duplicate()
	if err != nil {
		return nil, err
	}
	return fileStream{d}, nil
}
func (s fileStream) Close() error { return s.f.Close() }

// openArchiveEx returns the cached or newly opened archive FS for path,
// incrementing its refcount, per spec.md §4.4 "open_archive_ex". The caller
// must already hold owner.lock via token (directly or reentrantly), since
// opening the archive's backing file is itself a VFS call that may recurse
// into nested archives against the same owner.
//
// The returned release func undoes exactly the one refcount increment this
// call made; the caller must invoke it exactly once, either directly (a
// failed in-archive lookup, a stat-only resolution, or a listing — none of
// which hand back a file whose Close could do it) or indirectly by marking
// a returned file archive-referenced so its eventual Close calls it instead.
// release reuses the caller's token: every current call site invokes it
// synchronously, still inside the same locked call chain that produced it,
// so it must recurse into the held lock rather than acquire it fresh.
func (owner *FS) openArchiveEx(ctx context.Context, token *rmutex.Token, path string) (*FS, func(), error) {
	owner.lock.Lock(token)
	defer owner.lock.Unlock(token)

	for _, e := range owner.cache {
		if e.path == path {
			e.refcount++
			entry := e
			return e.fs, func() { owner.closeArchiveLocked(token, entry) }, nil
		}
	}

	ext := vfspath.Ext(path)
	opener, ok := owner.archiveTypes[ext]
	if !ok {
		return nil, nil, vfscommon.ErrNoBackend
	}

	archiveFile, err := owner.openLocked(ctx, token, path, vfscommon.ModeRead|vfscommon.ModeOpaque)
	if err != nil {
		return nil, nil, err
	}

	archiveBackend, err := opener(ctx, fileStream{archiveFile})
	if err != nil {
		archiveFile.Close()
		return nil, nil, err
	}

	entry := &archiveCacheEntry{path: path, refcount: 1}
	proxied := proxy.New(archiveBackend, archiveFile, func() {
		owner.closeArchive(entry)
	})
	entry.fs = &FS{
		backend:          proxied,
		lock:             rmutex.New(),
		archiveTypes:     owner.archiveTypes,
		ownsArchiveTypes: false,
		gcThreshold:      owner.gcThreshold,
	}
	owner.cache = append(owner.cache, entry)
	return entry.fs, func() { owner.closeArchiveLocked(token, entry) }, nil
}

// closeArchive decrements entry's refcount and runs THRESHOLD GC, per
// spec.md §4.4 "close_archive". It is invoked by the proxy backend's file
// Close once per file that archive descent flagged as archive-referenced —
// always from outside any dispatch call chain, so it mints its own token.
func (owner *FS) closeArchive(entry *archiveCacheEntry) {
	owner.closeArchiveLocked(rmutex.NewToken(), entry)
}

// closeArchiveLocked is closeArchive's same-chain form: it reuses token, so
// it must only be called while owner.lock is already held by that token
// (directly or reentrantly) — the form openArchiveEx's release func uses.
func (owner *FS) closeArchiveLocked(token *rmutex.Token, entry *archiveCacheEntry) {
	owner.lock.Lock(token)
	defer owner.lock.Unlock(token)
	entry.refcount--
	owner.gcLocked(vfscommon.GCThreshold)
}

// GC runs policy against owner's archive cache. FULL unloads every
// zero-refcount entry; THRESHOLD unloads oldest-first until at most
// owner.gcThreshold zero-refcount entries remain, per spec.md §4.4.
func (owner *FS) GC(policy vfscommon.GCPolicy) {
	token := rmutex.NewToken()
	owner.lock.Lock(token)
	defer owner.lock.Unlock(token)
	owner.gcLocked(policy)
}

func (owner *FS) gcLocked(policy vfscommon.GCPolicy) {
	if policy == vfscommon.GCFull {
		kept := owner.cache[:0]
		for _, e := range owner.cache {
			if e.refcount == 0 {
				e.fs.Close()
				continue
			}
			kept = append(kept, e)
		}
		owner.cache = kept
		return
	}

	idle := 0
	for _, e := range owner.cache {
		if e.refcount == 0 {
			idle++
		}
	}
	if idle <= owner.gcThreshold {
		return
	}
	toDrop := idle - owner.gcThreshold

	kept := owner.cache[:0]
	for _, e := range owner.cache {
		if e.refcount == 0 && toDrop > 0 {
			e.fs.Close()
			toDrop--
			continue
		}
		kept = append(kept, e)
	}
	owner.cache = kept
}
