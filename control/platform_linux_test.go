//go:build linux
// +build linux

package control

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformProbes_Affinity(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)

	v, ok := dp.Probe("platform.affinity")
	require.True(t, ok)
	cpus, ok := v.([]int)
	require.True(t, ok, "affinity probe failed: %v", v)
	require.NotEmpty(t, cpus)
	assert.LessOrEqual(t, len(cpus), runtime.NumCPU())
	for i := 1; i < len(cpus); i++ {
		assert.Less(t, cpus[i-1], cpus[i])
	}
}
