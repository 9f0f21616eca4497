package commands

import (
	"fmt"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Println("Set WEBHOOK_ID and WEBHOOK_TOKEN (or edit notify.webhook) before running")
	return nil
}
