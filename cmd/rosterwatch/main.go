package main

import (
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/rosterwatch/cmd/rosterwatch/commands"
	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("rosterwatch"),
		kong.Description("Watch a clan roster and announce new member activity."),
		kong.UsageOnError(),
	)

	err := parser.Run(cli.Global(), cli)
	errors.NewCLIErrorAdapter(cli.Verbose, cli.Global().Logger).HandleError(err)
}
