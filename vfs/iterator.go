package vfs

import (
	"context"
	"sort"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/internal/rmutex"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
)

// First returns a merged, sorted, deduplicated listing of dir across every
// contributing source — matching read mounts, the raw backend, and (in
// non-opaque modes) archive descent — per spec.md §4.10.
func (fs *FS) First(ctx context.Context, dir string, mode vfscommon.OpenMode) (backend.DirIterator, error) {
	token := rmutex.NewToken()
	return fs.firstLocked(ctx, token, dir, mode)
}

// firstLocked is the same-FS recursive entry point archive descent uses: it
// reuses token, so it must only be called while fs.lock is already held by
// that token (directly or reentrantly).
func (fs *FS) firstLocked(ctx context.Context, token *rmutex.Token, dir string, mode vfscommon.OpenMode) (backend.DirIterator, error) {
	fs.lock.Lock(token)
	defer fs.lock.Unlock(token)

	byName := make(map[string]backend.DirEntry)
	add := func(e backend.DirEntry) {
		if e.Name == "." || e.Name == ".." {
			return
		}
		if _, exists := byName[e.Name]; exists {
			return
		}
		byName[e.Name] = e
	}

	for _, m := range fs.readMounts.snapshot() {
		if rest, ok := vfspath.TrimPrefix(dir, m.Prefix); ok {
			addIteratorEntries(add, fs.mountIterator(ctx, m, rest))
			continue
		}
		if childRest, ok := vfspath.TrimPrefix(m.Prefix, dir); ok {
			segs := vfspath.Segments(childRest)
			if len(segs) >= 1 {
				add(backend.DirEntry{Name: segs[0], Info: backend.Info{IsDir: true}})
			}
		}
	}

	if !mode.Has(vfscommon.ModeOnlyMounts) {
		if it, err := fs.backend.First(ctx, dir); err == nil {
			addIteratorEntries(add, it)
		}
	}

	if !mode.Has(vfscommon.ModeOpaque) {
		for _, e := range fs.archiveDescentListing(ctx, token, dir, mode) {
			add(e)
		}
	}

	entries := make([]backend.DirEntry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return lessName(entries[i].Name, entries[j].Name) })

	return &mergedIterator{entries: entries}, nil
}

func (fs *FS) mountIterator(ctx context.Context, m *Mount, rest string) backend.DirIterator {
	if m.Archive != nil {
		it, err := m.Archive.First(ctx, rest, vfscommon.ModeRead)
		if err != nil {
			return nil
		}
		return it
	}
	it, err := fs.backend.First(ctx, joinMountPath(m.Source, rest))
	if err != nil {
		return nil
	}
	return it
}

func addIteratorEntries(add func(backend.DirEntry), it backend.DirIterator) {
	if it == nil {
		return
	}
	defer it.Close()
	for {
		e, ok, err := it.Next()
		if err != nil || !ok {
			return
		}
		add(e)
	}
}

func lessName(a, b string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// mergedIterator walks a pre-sorted, pre-deduplicated entry slice, per
// spec.md §4.10 step 5.
type mergedIterator struct {
	entries []backend.DirEntry
	idx     int
}

func (it *mergedIterator) Next() (backend.DirEntry, bool, error) {
	if it.idx >= len(it.entries) {
		return backend.DirEntry{}, false, nil
	}
	e := it.entries[it.idx]
	it.idx++
	return e, true, nil
}

func (it *mergedIterator) Close() error { return nil }
