package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/check"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/cli"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/dev"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/dump"
	"github.com/broady/ctrlgen/cmd/ctrlgen/internal/gen"
)

type CLI struct {
	cli.Globals

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate the API client."`
	Check   check.Cmd  `cmd:"" help:"Fail if the generated client is out of date."`
	Dump    dump.Cmd   `cmd:"" help:"Print the extracted controllers."`
	Dev     dev.Cmd    `cmd:"" help:"Serve extracted controllers and the generated client for inspection."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var c CLI
	k := kong.Parse(&c,
		kong.Name("ctrlgen"),
		kong.Description("Generate typed Go clients for HTTP controllers."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&c.Globals),
	)
	err := k.Run()
	k.FatalIfErrorf(err)
}
