package cli_test

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligne12/nockpool-miner-launcher/cmd/nockpool-launcher/cli"
)

func parse(t *testing.T, args ...string) (*cli.CLI, *kong.Context) {
	t.Helper()
	var root cli.CLI
	parser, err := kong.New(&root, cli.KongOptions()...)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &root, kctx
}

func TestParseRunFlags(t *testing.T) {
	root, kctx := parse(t, "run", "--no-update", "--", "--pool", "wss://example.com")
	assert.Contains(t, kctx.Command(), "run")
	assert.True(t, root.Run.NoUpdate)
	assert.Equal(t, []string{"--pool", "wss://example.com"}, root.Run.MinerArgs)
}

func TestParseDefaultsToRun(t *testing.T) {
	root, _ := parse(t)
	assert.False(t, root.Run.NoUpdate)
	assert.Empty(t, root.Run.MinerArgs)
}

func TestParseGlobalFlags(t *testing.T) {
	root, _ := parse(t, "--base", "/opt/nockpool", "--log", "debug", "list")
	assert.Equal(t, "/opt/nockpool", root.Base)
	assert.Equal(t, "debug", root.Log)

	dirs, err := root.Dirs()
	require.NoError(t, err)
	assert.Equal(t, "/opt/nockpool", dirs.Base())
}

func TestParseUnknownCommand(t *testing.T) {
	var root cli.CLI
	parser, err := kong.New(&root, cli.KongOptions()...)
	require.NoError(t, err)
	_, err = parser.Parse([]string{"frobnicate"})
	assert.Error(t, err)
}
