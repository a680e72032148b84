package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSetNameCommand implements `aura set-name <name>`. Per SPEC_FULL.md
// §6: this subcommand never runs standalone in practice (it is invoked
// by the agent as a shell command whose text the rollout parsers detect
// and parse themselves), so it only needs to echo its argument and exit
// zero.
func newSetNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-name <name>",
		Short: "Set the display name for the current session (detected by rollout parsers)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			for _, a := range args[1:] {
				name += " " + a
			}
			fmt.Println(name)
			return nil
		},
	}
}
