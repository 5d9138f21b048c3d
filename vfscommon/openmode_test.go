package vfscommon

import (
	"encoding/json"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Check OpenMode satisfies the pflag and json interfaces.
var (
	_ pflag.Value      = (*OpenMode)(nil)
	_ json.Unmarshaler = (*OpenMode)(nil)
	_ json.Marshaler   = OpenMode(0)
)

func TestOpenModeTransparentDefault(t *testing.T) {
	var m OpenMode
	assert.True(t, m.Transparent())
	m = ModeOpaque
	assert.False(t, m.Transparent())
	m = ModeVerbose
	assert.False(t, m.Transparent())
}

func TestOpenModeStringSet(t *testing.T) {
	m := ModeRead | ModeWrite
	s := m.String()

	var m2 OpenMode
	require.NoError(t, m2.Set(s))
	assert.Equal(t, m, m2)
}

func TestOpenModeSetUnknown(t *testing.T) {
	var m OpenMode
	err := m.Set("not_a_flag")
	assert.Error(t, err)
}

func TestOpenModeSetNone(t *testing.T) {
	var m OpenMode
	require.NoError(t, m.Set("none"))
	assert.Equal(t, OpenMode(0), m)
	assert.Equal(t, "none", m.String())
}

func TestOpenModeJSONRoundTrip(t *testing.T) {
	m := ModeRead | ModeOpaque
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var m2 OpenMode
	require.NoError(t, json.Unmarshal(data, &m2))
	assert.Equal(t, m, m2)
}

func TestOpenModeHas(t *testing.T) {
	m := ModeRead | ModeOnlyMounts
	assert.True(t, m.Has(ModeRead))
	assert.True(t, m.Has(ModeOnlyMounts))
	assert.False(t, m.Has(ModeWrite))
}
