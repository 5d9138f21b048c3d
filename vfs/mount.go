package vfs

import (
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfspath"
)

// Mount is one registered binding from a virtual-path prefix to a source,
// per spec.md §3 "Mount point". Immutable after insertion.
type Mount struct {
	// Source is the directory on the underlying backend this mount
	// contributes, or "" when Archive is set.
	Source string

	// Prefix is the virtual-path prefix this mount serves.
	Prefix string

	// Archive is the archive FS this mount recurses into, or nil for a
	// plain directory mount.
	Archive *FS

	// CloseOnUnmount reports whether removing this mount should close
	// Archive.
	CloseOnUnmount bool
}

// mountList is the ordered sequence backing both the read and write mount
// lists. Order encodes priority: index 0 is highest. spec.md §4.6 describes
// this as a packed buffer with memmove-based insertion; a Go slice gives the
// same ordering semantics without manual layout.
type mountList struct {
	mounts []*Mount
}

// insert adds m at the head (vfscommon.MountHighest) or tail
// (vfscommon.MountLowest), unless an identical (Source, Prefix) pair is
// already present.
func (l *mountList) insert(m *Mount, priority vfscommon.MountPriority) bool {
	for _, existing := range l.mounts {
		if existing.Source == m.Source && existing.Prefix == m.Prefix {
			return false
		}
	}
	if priority == vfscommon.MountHighest {
		l.mounts = append([]*Mount{m}, l.mounts...)
	} else {
		l.mounts = append(l.mounts, m)
	}
	return true
}

// remove deletes the first mount matching prefix and source, returning the
// removed mount, or nil if none matched.
func (l *mountList) remove(prefix, source string) *Mount {
	for i, m := range l.mounts {
		if m.Prefix == prefix && m.Source == source {
			l.mounts = append(l.mounts[:i:i], l.mounts[i+1:]...)
			return m
		}
	}
	return nil
}

// snapshot returns the current mount slice; callers hold the FS archive
// lock for the duration of their walk so concurrent mutation during an open
// can't interleave (spec.md §5 "Ordering guarantees").
func (l *mountList) snapshot() []*Mount {
	return l.mounts
}

// longestWriteMatch finds the write mount whose prefix is the longest
// segment-aligned match for path, per spec.md §4.2 step 2 / §2 step 5.
func (l *mountList) longestWriteMatch(path string) (*Mount, string, bool) {
	var best *Mount
	var bestRest string
	bestLen := -1
	for _, m := range l.mounts {
		rest, ok := vfspath.TrimPrefix(path, m.Prefix)
		if !ok {
			continue
		}
		prefixLen := len(vfspath.Segments(m.Prefix))
		if prefixLen > bestLen {
			best = m
			bestRest = rest
			bestLen = prefixLen
		}
	}
	if best == nil {
		return nil, "", false
	}
	return best, bestRest, true
}
