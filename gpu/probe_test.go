package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligne12/nockpool-miner-launcher/gpu"
)

func TestProbeReportsAllChecks(t *testing.T) {
	checks := gpu.Probe()
	require.Len(t, checks, 3)

	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
		if !c.OK {
			assert.NotEmpty(t, c.Detail, "failing checks explain themselves")
		}
	}
	assert.Equal(t, []string{"kernel driver", "device nodes", "libcuda"}, names)
}
