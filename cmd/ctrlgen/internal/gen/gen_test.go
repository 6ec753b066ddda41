package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/broady/ctrlgen"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopSnapshot = "../../../../testdata/shop.yaml"

func TestCmd_Apply(t *testing.T) {
	cfg := ctrlgen.Config{Packages: []string{"./api"}, OutDir: "/from/config"}
	c := &Cmd{Out: "/from/flag", Package: "shop", Snapshot: "graph.yaml", OpenAPI: "openapi.json"}
	require.NoError(t, c.Apply(&cfg))
	assert.Equal(t, "/from/flag", cfg.OutDir)
	assert.Equal(t, "shop", cfg.Emit.Package)
	assert.Equal(t, "graph.yaml", cfg.Snapshot)
	assert.Nil(t, cfg.Packages)
	require.NotNil(t, cfg.OpenAPI)
	assert.Equal(t, "openapi.json", cfg.OpenAPI.Output)

	cfg = ctrlgen.Config{Packages: []string{"."}}
	assert.ErrorContains(t, (&Cmd{}).Apply(&cfg), "no output directory")
}

func TestCmd_Run(t *testing.T) {
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	g := &cli.Globals{
		Config: filepath.Join(t.TempDir(), "none.yaml"),
		Stdout: &stdout,
		Stderr: &stderr,
	}

	// An explicit config file that does not exist is an error.
	c := &Cmd{Out: out, Snapshot: shopSnapshot}
	assert.Error(t, c.Run(context.Background(), g))

	g.Config = ctrlgen.DefaultConfigFile
	require.NoError(t, c.Run(context.Background(), g))
	assert.Contains(t, stdout.String(), "✓ 1 controllers, 3 actions\n")
	assert.Contains(t, stdout.String(), filepath.Join(out, "api_client_gen.go"))
	assert.Contains(t, stderr.String(), "client generated")

	src, err := os.ReadFile(filepath.Join(out, "api_client_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package apiclient\n")
}
