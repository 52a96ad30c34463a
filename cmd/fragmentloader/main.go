package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fragmentloader/cmd/fragmentloader/commands"
	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	globals := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("fragmentloader"),
		kong.Description("Assemble host pages from shared header and footer fragments."),
		kong.UsageOnError(),
		kong.Bind(globals),
	)

	if err := ctx.Run(globals, &cli); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(err))
	}
}
