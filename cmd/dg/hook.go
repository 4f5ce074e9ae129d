package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/hook"
)

var hookCmd = &cobra.Command{
	Use:   "hook <event-kind>",
	Short: "Process an interception event from an agent host",
	Long: `Read one JSON event payload from stdin, dispatch it, and write the
outcome as JSON to stdout.

Event kinds:
  pre-action   gate a proposed create or update; denied operations make
               the command exit non-zero
  post-action  record a completed test run

The pre-action path fails closed: a payload that cannot be parsed is
denied rather than waved through.

Examples:
  echo "$PAYLOAD" | dg hook pre-action
  dg hook post-action < run-result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	kind, ok := hook.ParseEventKind(args[0])
	if !ok {
		return fmt.Errorf("unknown event kind %q (accepted: pre-action, post-action)", args[0])
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read event payload: %w", err)
	}

	cfg := loadedConfig()
	dispatcher := hook.NewDispatcher(openStore(cfg), cfg.RequiredNovelRuns)
	outcome := dispatcher.Dispatch(kind, payload)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	if !outcome.Allowed() {
		// The outcome on stdout is the real answer; the exit code just
		// mirrors it for hosts that only check status.
		cmd.SilenceErrors = true
		return fmt.Errorf("denied: %s", outcome.Reason)
	}
	return nil
}
