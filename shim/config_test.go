package shim_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ligne12/nockpool-miner-launcher/shim"
)

func TestConfigDefaults(t *testing.T) {
	for _, v := range []string{shim.EnvVerbose, shim.EnvDump, shim.EnvTargetArch, shim.EnvDumpDir} {
		t.Setenv(v, "")
	}

	cfg := shim.ConfigFromEnv()

	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.Dump)
	assert.Equal(t, shim.DefaultTargetArch, cfg.TargetArch)
	assert.Equal(t, shim.DefaultDumpDir, cfg.DumpDir)
}

func TestConfigTruthiness(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"100", true},
		{"0", false},
		{"true", false}, // only a leading '1' counts
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv(shim.EnvVerbose, tt.value)
			t.Setenv(shim.EnvDump, tt.value)

			cfg := shim.ConfigFromEnv()

			assert.Equal(t, tt.want, cfg.Verbose)
			assert.Equal(t, tt.want, cfg.Dump)
		})
	}
}

func TestConfigTruncation(t *testing.T) {
	t.Setenv(shim.EnvTargetArch, "sm_89_feature_variant_suffix")
	t.Setenv(shim.EnvDumpDir, "/"+strings.Repeat("d", 300))

	cfg := shim.ConfigFromEnv()

	// Overlong values are silently cut, never rejected.
	assert.Len(t, cfg.TargetArch, 15)
	assert.Equal(t, "sm_89_feature_v", cfg.TargetArch)
	assert.Len(t, cfg.DumpDir, 255)
}

func TestConfigExplicitValues(t *testing.T) {
	t.Setenv(shim.EnvTargetArch, "sm_120")
	t.Setenv(shim.EnvDumpDir, "/var/tmp/ptx")

	cfg := shim.ConfigFromEnv()

	assert.Equal(t, "sm_120", cfg.TargetArch)
	assert.Equal(t, "/var/tmp/ptx", cfg.DumpDir)
}
