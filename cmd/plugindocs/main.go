package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/plugindocs/cmd/plugindocs/commands"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("plugindocs"),
		kong.Description("Resolve remote plugin documentation into a navigation tree."),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(); err != nil {
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).Report(err))
	}
}
