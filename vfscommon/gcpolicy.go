package vfscommon

import (
	"encoding/json"
	"fmt"
)

// GCPolicy selects how the archive cache reclaims zero-refcount entries,
// per spec.md §4.4.
type GCPolicy int

// Policies.
const (
	// GCThreshold unloads oldest zero-refcount entries until the number of
	// zero-refcount entries is at or below the configured threshold.
	GCThreshold GCPolicy = iota
	// GCFull unloads every zero-refcount entry.
	GCFull
)

var gcPolicyNames = []string{"threshold", "full"}

// String implements pflag.Value / fmt.Stringer.
func (p GCPolicy) String() string {
	if int(p) < 0 || int(p) >= len(gcPolicyNames) {
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
	return gcPolicyNames[p]
}

// Set implements pflag.Value.
func (p *GCPolicy) Set(s string) error {
	for i, name := range gcPolicyNames {
		if name == s {
			*p = GCPolicy(i)
			return nil
		}
	}
	return fmt.Errorf("vfscommon: unknown GC policy %q", s)
}

// Type implements pflag.Value.
func (p GCPolicy) Type() string {
	return "GCPolicy"
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *GCPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return p.Set(s)
}

// DefaultGCThreshold is the default maximum number of zero-refcount cached
// archives tolerated before GCThreshold starts reclaiming, per spec.md §4.4.
const DefaultGCThreshold = 10

// MountPriority selects where in a mount list a new mount is inserted.
type MountPriority int

// Priorities.
const (
	MountLowest MountPriority = iota
	MountHighest
)
