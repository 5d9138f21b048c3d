package vfscommon

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ pflag.Value = (*GCPolicy)(nil)

func TestGCPolicyString(t *testing.T) {
	assert.Equal(t, "threshold", GCThreshold.String())
	assert.Equal(t, "full", GCFull.String())
	assert.Equal(t, "Unknown(99)", GCPolicy(99).String())
}

func TestGCPolicySet(t *testing.T) {
	var p GCPolicy
	require.NoError(t, p.Set("full"))
	assert.Equal(t, GCFull, p)

	err := p.Set("bogus")
	assert.Error(t, err)
}
