package vfscommon

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OpenMode is the bitset of flags passed to an open-or-info call, per
// spec.md §6 "Open mode flags". It implements pflag.Value and
// json.Unmarshaler the way the teacher's vfscommon.CacheMode does, so an
// embedding CLI can expose it as a flag or config value.
type OpenMode uint32

// Flag bits. OPAQUE, VERBOSE, and TRANSPARENT are mutually describing one
// archive-descent mode; TRANSPARENT is the zero value so it is the default
// when neither OPAQUE nor VERBOSE is set, matching spec.md §6.
const (
	ModeRead OpenMode = 1 << iota
	ModeWrite
	ModeAppend
	ModeExclusive
	ModeTruncate
	ModeOpaque
	ModeVerbose
	ModeNoCreateDirs
	ModeNoAboveRootNavigation
	ModeIgnoreMounts
	ModeOnlyMounts
	ModeNoSpecialDirs
)

var openModeNames = []struct {
	bit  OpenMode
	name string
}{
	{ModeRead, "read"},
	{ModeWrite, "write"},
	{ModeAppend, "append"},
	{ModeExclusive, "exclusive"},
	{ModeTruncate, "truncate"},
	{ModeOpaque, "opaque"},
	{ModeVerbose, "verbose"},
	{ModeNoCreateDirs, "no_create_dirs"},
	{ModeNoAboveRootNavigation, "no_above_root_navigation"},
	{ModeIgnoreMounts, "ignore_mounts"},
	{ModeOnlyMounts, "only_mounts"},
	{ModeNoSpecialDirs, "no_special_dirs"},
}

// Transparent reports whether m selects transparent archive descent: the
// default when neither Opaque nor Verbose is explicitly requested.
func (m OpenMode) Transparent() bool {
	return m&(ModeOpaque|ModeVerbose) == 0
}

// Has reports whether all bits in flag are set in m.
func (m OpenMode) Has(flag OpenMode) bool {
	return m&flag == flag
}

// String renders m as a "|"-joined list of flag names, matching the
// teacher's CacheMode.String()'s "Unknown(n)" fallback shape for any bits it
// doesn't recognize.
func (m OpenMode) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	rest := m
	for _, f := range openModeNames {
		if rest.Has(f.bit) {
			names = append(names, f.name)
			rest &^= f.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("Unknown(%d)", rest))
	}
	return strings.Join(names, "|")
}

// Set parses a "|"-joined list of flag names into m, implementing
// pflag.Value.
func (m *OpenMode) Set(s string) error {
	var out OpenMode
	if s == "" || s == "none" {
		*m = 0
		return nil
	}
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, f := range openModeNames {
			if f.name == part {
				out |= f.bit
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("vfscommon: unknown open mode flag %q", part)
		}
	}
	*m = out
	return nil
}

// Type implements pflag.Value.
func (m OpenMode) Type() string {
	return "OpenMode"
}

// MarshalJSON implements json.Marshaler, encoding as the numeric bitset.
func (m OpenMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint32(m))
}

// UnmarshalJSON implements json.Unmarshaler, accepting either the numeric
// bitset or a "|"-joined string of flag names.
func (m *OpenMode) UnmarshalJSON(data []byte) error {
	var n uint32
	if err := json.Unmarshal(data, &n); err == nil {
		*m = OpenMode(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return m.Set(s)
}

// ParseOpenMode is a convenience wrapper returning a fresh OpenMode.
func ParseOpenMode(s string) (OpenMode, error) {
	var m OpenMode
	err := m.Set(s)
	return m, err
}
