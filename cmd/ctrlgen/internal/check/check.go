package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/broady/ctrlgen"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/gen"
)

// Cmd regenerates in memory and compares against the output directory.
// It accepts the same flags as gen.
type Cmd struct {
	gen.Cmd
}

func (c *Cmd) Run(ctx context.Context, g *cli.Globals) error {
	cfg, err := g.Load()
	if err != nil {
		return err
	}
	if err := c.Apply(&cfg); err != nil {
		return err
	}

	out := g.Out()
	stale, err := ctrlgen.Check(ctx, cfg, g.Logger())
	if errors.Is(err, ctrlgen.ErrStale) {
		for _, path := range stale {
			fmt.Fprintf(out, "✗ %s is out of date\n", path)
		}
		return fmt.Errorf("%d generated files are out of date; run ctrlgen gen", len(stale))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ generated files are up to date")
	return nil
}
