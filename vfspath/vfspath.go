// Package vfspath implements the path-string utilities the VFS core relies
// on: segment iteration, normalization of "." and "..", and prefix matching
// against mount points.
package vfspath

import "strings"

// Separator is the canonical virtual path separator. Both '/' and '\\' are
// accepted on input and normalized to this.
const Separator = '/'

// isSep reports whether r is accepted as a path separator on input.
func isSep(r byte) bool {
	return r == '/' || r == '\\'
}

// Segments splits path into its non-empty segments, treating '/' and '\\'
// interchangeably and ignoring leading, trailing, and repeated separators.
func Segments(path string) []string {
	var segs []string
	start := -1
	for i := 0; i < len(path); i++ {
		if isSep(path[i]) {
			if start >= 0 {
				segs = append(segs, path[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		segs = append(segs, path[start:])
	}
	return segs
}

// Join re-assembles segments into a canonical path, '/'-separated, with no
// leading or trailing separator.
func Join(segs []string) string {
	return strings.Join(segs, string(Separator))
}

// Clean normalizes path: separators are unified, "." segments are dropped,
// ".." segments pop the preceding segment when one exists. If aboveRoot
// segments remain (more ".." than preceding segments to consume), Clean
// reports escaped=true and the returned path is the portion that could be
// resolved with the excess ".." segments retained at the front — callers
// that must forbid above-root navigation should treat escaped=true as a
// hard error rather than using the returned path.
func Clean(path string) (cleaned string, escaped bool) {
	in := Segments(path)
	out := make([]string, 0, len(in))
	for _, seg := range in {
		switch seg {
		case ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else {
				escaped = true
				out = append(out, "..")
			}
		default:
			out = append(out, seg)
		}
	}
	return Join(out), escaped
}

// HasSpecialSegments reports whether path contains any "." or ".." segment,
// used to implement the NO_SPECIAL_DIRS open flag.
func HasSpecialSegments(path string) bool {
	for _, seg := range Segments(path) {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// TrimPrefix reports whether prefix is a segment-aligned prefix of path (so
// that "/data" matches "/data/x" but not "/database"), and if so returns the
// remaining sub-path with no leading separator.
func TrimPrefix(path, prefix string) (rest string, ok bool) {
	pathSegs := Segments(path)
	prefixSegs := Segments(prefix)
	if len(prefixSegs) > len(pathSegs) {
		return "", false
	}
	for i, seg := range prefixSegs {
		if pathSegs[i] != seg {
			return "", false
		}
	}
	return Join(pathSegs[len(prefixSegs):]), true
}

// Ext returns the file-extension of path's final segment, including the
// leading dot, lower-cased for registry lookups (e.g. "a/b/pkg.ZIP" ->
// ".zip"). Returns "" if the final segment has no dot, or is entirely dots.
func Ext(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	name := segs[len(segs)-1]
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || strings.Trim(name, ".") == "" {
		return ""
	}
	return strings.ToLower(name[idx:])
}

// Dir returns all but the last segment of path, joined back into a path.
func Dir(path string) string {
	segs := Segments(path)
	if len(segs) <= 1 {
		return ""
	}
	return Join(segs[:len(segs)-1])
}

// Base returns the final segment of path, or "" if path has none.
func Base(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
