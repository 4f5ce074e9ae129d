package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/gate"
)

// errGateDenied signals a denied gate decision after the findings have
// already been printed.
var errGateDenied = errors.New("operation denied")

var (
	gateOperation string
	gateKind      string
	gatePath      string
	gateDeps      []string
	gateRequired  int
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Evaluate a proposed operation against its dependencies",
	Long: `Evaluate whether a proposed create or update may proceed, given the
health of its declared dependencies.

Creates are permissive: unhealthy dependencies produce warnings but the
operation is allowed, so early drafting is never blocked. Updates are
strict: any unhealthy dependency denies the operation, and the command
exits non-zero.

Examples:
  dg gate --operation create --kind composite-artifact --path svc/new \
      --dep leaf-unit:pkg/parser
  dg gate --operation update --kind orchestrator --path flows/release \
      --dep composite-artifact:svc/api --dep leaf-unit:pkg/lexer`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().StringVar(&gateOperation, "operation", "", "Operation kind (create, update)")
	gateCmd.Flags().StringVar(&gateKind, "kind", "", "Proposed artifact kind (leaf-unit, composite-artifact, orchestrator)")
	gateCmd.Flags().StringVar(&gatePath, "path", "", "Proposed artifact logical path")
	gateCmd.Flags().StringArrayVar(&gateDeps, "dep", nil, "Declared dependency as kind:path (repeatable)")
	gateCmd.Flags().IntVar(&gateRequired, "required-runs", 0, "Override the distinct-input passing run threshold")
	//nolint:errcheck // flag registered above
	gateCmd.MarkFlagRequired("operation")
	//nolint:errcheck // flag registered above
	gateCmd.MarkFlagRequired("kind")
	//nolint:errcheck // flag registered above
	gateCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	op, ok := gate.ParseOperationKind(gateOperation)
	if !ok {
		return fmt.Errorf("unknown operation %q (accepted: create, update)", gateOperation)
	}
	kind, err := parseKindFlag(gateKind)
	if err != nil {
		return err
	}
	deps, err := parseDependencyRefs(gateDeps)
	if err != nil {
		return err
	}

	cfg := loadedConfig()
	required := gateRequired
	if required <= 0 {
		required = cfg.RequiredNovelRuns
	}

	if GetDryRun() {
		fmt.Printf("[dry-run] Would evaluate %s of %s against %d dependencies\n", op, gatePath, len(deps))
		return nil
	}

	reg := openStore(cfg).Load()
	proposed := gate.Proposed{Kind: kind, Path: gatePath}
	decision := gate.EvaluateOperationWith(reg, op, proposed, deps, required)

	if err := outputGateDecision(decision); err != nil {
		return err
	}
	if !decision.Allowed {
		cmd.SilenceErrors = true
		return errGateDenied
	}
	return nil
}

func outputGateDecision(decision *gate.Decision) error {
	return outputStructured(decision, func() error {
		fmt.Println(decision.Summary())
		for _, v := range decision.Violations {
			fmt.Printf("  DENY  %s (%s): %s\n", v.Dependency, v.Status, v.Message)
		}
		for _, w := range decision.Warnings {
			fmt.Printf("  WARN  %s (%s): %s\n", w.Dependency, w.Status, w.Message)
		}
		return nil
	})
}
