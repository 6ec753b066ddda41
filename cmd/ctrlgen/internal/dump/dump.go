// Package dump prints extracted controller descriptors.
package dump

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/broady/ctrlgen"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/broady/ctrlgen/ir"
	"gopkg.in/yaml.v3"
)

type Cmd struct {
	Format   string `help:"Output format." enum:"yaml,json" default:"yaml" short:"f"`
	Snapshot string `help:"Scan a YAML graph snapshot instead of Go packages." type:"existingfile"`
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	if c.Snapshot != "" {
		cfg.Snapshot = c.Snapshot
		cfg.Packages = nil
	}
	controllers, err := ctrlgen.Extract(ctx, cfg, g.Logger())
	if err != nil {
		return err
	}
	return Write(g.Out(), controllers, c.Format)
}

// Write encodes controllers to w as YAML or JSON.
func Write(w io.Writer, controllers []ir.Controller, format string) error {
	if controllers == nil {
		controllers = []ir.Controller{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(controllers)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(controllers); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
