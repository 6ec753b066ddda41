package gen

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/broady/ctrlgen"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/broady/ctrlgen/sink"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Cmd struct {
	Out      string `arg:"" optional:"" help:"Output directory (overrides outDir in the config file)." type:"path"`
	Package  string `help:"Generated package name." short:"p"`
	Snapshot string `help:"Scan a YAML graph snapshot instead of Go packages." type:"existingfile"`
	OpenAPI  string `help:"Also write an OpenAPI document with this file name." name:"openapi"`
}

// Apply merges the command's flags into cfg.
func (c *Cmd) Apply(cfg *ctrlgen.Config) error {
	if c.Out != "" {
		cfg.OutDir = c.Out
	}
	if c.Package != "" {
		cfg.Emit.Package = c.Package
	}
	if c.Snapshot != "" {
		cfg.Snapshot = c.Snapshot
		cfg.Packages = nil
	}
	if c.OpenAPI != "" {
		if cfg.OpenAPI == nil {
			cfg.OpenAPI = &ctrlgen.OpenAPIConfig{}
		}
		cfg.OpenAPI.Output = c.OpenAPI
	}
	if cfg.OutDir == "" {
		return fmt.Errorf("no output directory: pass one or set outDir in %s", ctrlgen.DefaultConfigFile)
	}
	return nil
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	if err := c.Apply(&cfg); err != nil {
		return err
	}
	logger := g.Logger()

	res, err := ctrlgen.Generate(ctx, cfg, sink.NewFilesystemSink(cfg.OutDir), logger)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	out := g.Out()
	actions := 0
	for _, ctrl := range res.Controllers {
		actions += len(ctrl.Actions)
	}
	p.Fprintf(out, "✓ %d controllers, %d actions\n", len(res.Controllers), actions)
	for _, path := range slices.Sorted(maps.Keys(res.Files)) {
		p.Fprintf(out, "✓ wrote %s (%d bytes)\n", filepath.Join(cfg.OutDir, path), len(res.Files[path]))
	}
	return nil
}
