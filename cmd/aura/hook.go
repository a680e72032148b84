package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fahchen/aura/internal/config"
	"github.com/fahchen/aura/internal/hook"
	"github.com/fahchen/aura/internal/ipc"
	"github.com/fahchen/aura/internal/logx"
)

func newHookCommand() *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Decode a host agent's hook JSON from stdin and forward it to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			runHook(hook.AgentName(agentName))
			return nil
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "", "agent family: claude-code, codex, gemini-cli, open-code")
	return cmd
}

// runHook never returns a non-zero exit: per SPEC_FULL.md §6, the hook
// helper always exits zero so a missing daemon or malformed payload
// never blocks the host agent's own hook pipeline.
func runHook(agent hook.AgentName) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		logx.Warnf("hook: could not read stdin: %v", err)
		return
	}

	decode, ok := hook.ForAgent(agent)
	if !ok {
		logx.Warnf("hook: unrecognized agent %q", agent)
		return
	}

	evs, err := decode(raw)
	if err != nil {
		logx.Warnf("hook: decode error: %v", err)
		return
	}
	if len(evs) == 0 {
		return
	}

	cfg, err := config.LoadOrDefault(config.DefaultConfigPath())
	if err != nil {
		logx.Warnf("hook: could not load config: %v", err)
		return
	}
	ipc.SendEvents(cfg.Socket.Path, evs)
}
