// Command aura is Aura's daemon and hook-helper entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fahchen/aura/internal/logx"
)

var verbosity int

func main() {
	root := &cobra.Command{
		Use:   "aura",
		Short: "Observe concurrently-running AI coding-agent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbosity > 0 {
			logx.SetLevel(logx.LevelFromVerbosity(verbosity))
		}
	}

	root.AddCommand(newHookCommand())
	root.AddCommand(newSetNameCommand())
	root.AddCommand(newWatchCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
