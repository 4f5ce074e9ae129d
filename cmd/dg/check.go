package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/health"
	"github.com/boshu2/depgate/internal/identity"
)

var (
	checkKind     string
	checkPath     string
	checkShallow  bool
	checkRequired int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate an artifact's health",
	Long: `Evaluate an artifact's test health from its recorded evidence.

The statuses, in precedence order:
  unknown   never recorded in the registry
  failing   most recent run failed
  stale     content changed since the most recent run
  testing   fewer distinct-input passing runs than required
  blocked   own evidence is sufficient but a dependency is unhealthy
  healthy   everything above passed, dependencies included

Dependencies are evaluated recursively unless --shallow is given.

Examples:
  dg check --kind leaf-unit --path pkg/parser
  dg check --kind orchestrator --path flows/release -o json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkKind, "kind", "", "Artifact kind (leaf-unit, composite-artifact, orchestrator)")
	checkCmd.Flags().StringVar(&checkPath, "path", "", "Artifact logical path")
	checkCmd.Flags().BoolVar(&checkShallow, "shallow", false, "Evaluate own evidence only, skip dependencies")
	checkCmd.Flags().IntVar(&checkRequired, "required-runs", 0, "Override the distinct-input passing run threshold")
	//nolint:errcheck // flag registered above
	checkCmd.MarkFlagRequired("kind")
	//nolint:errcheck // flag registered above
	checkCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(checkKind)
	if err != nil {
		return err
	}
	id := identity.ResolveID(kind, checkPath)

	cfg := loadedConfig()
	required := checkRequired
	if required <= 0 {
		required = cfg.RequiredNovelRuns
	}

	reg := openStore(cfg).Load()
	result := health.EvaluateWith(reg, id, !checkShallow, required)

	return outputStructured(result, func() error {
		fmt.Printf("%s: %s\n", checkPath, result.Status)
		fmt.Printf("  Distinct passing inputs: %d of %d required\n", result.NovelPassingCount, result.RequiredRuns)
		if len(result.UnhealthyChildren) > 0 {
			fmt.Printf("  Unhealthy dependencies: %v\n", result.UnhealthyChildren)
		}
		if hint := health.Remediation(result); hint != "" {
			fmt.Printf("  Next: %s\n", hint)
		}
		return nil
	})
}
