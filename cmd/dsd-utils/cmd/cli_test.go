package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/genconfig"
)

const fourLineFixture = "dd.agent.up:1|c\n" +
	"dd.agent.up:1|c|#env:prod\n" +
	"dd.agent.up:1|c|#env:staging\n" +
	"dd.agent.up:1|c|#env:dev\n"

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.txt")
	require.NoError(t, os.WriteFile(path, []byte(fourLineFixture), 0o644))
	return path
}

func TestCatEmitsEachLineUnchanged(t *testing.T) {
	input := writeFixture(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cat", input})
	require.NoError(t, root.Execute())

	require.Equal(t, fourLineFixture, out.String())
}

func TestAnalyzeLadingConfigRoundTrips(t *testing.T) {
	input := writeFixture(t)
	cfgOut := filepath.Join(t.TempDir(), "lading.yaml")

	root := newRootCmd()
	root.SetArgs([]string{"analyze", "--lading-config", cfgOut, input})
	require.NoError(t, root.Execute())

	raw, err := os.ReadFile(cfgOut)
	require.NoError(t, err)

	var cfg genconfig.Config
	require.NoError(t, yaml.Unmarshal(raw, &cfg))
	require.NotNil(t, cfg.Contexts.Constant)
	require.Equal(t, uint64(4), *cfg.Contexts.Constant)
}

func TestAnalyzePrintsSummary(t *testing.T) {
	input := writeFixture(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"analyze", input})
	require.NoError(t, root.Execute())

	require.Contains(t, out.String(), "messages:")
	require.Contains(t, out.String(), "contexts:")
}
