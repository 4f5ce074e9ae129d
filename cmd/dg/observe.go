package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/fingerprint"
	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/recorder"
)

var (
	observeKind      string
	observePath      string
	observeContentFP string
	observeFile      string
	observeDeps      []string
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Record an artifact's content fingerprint and dependencies",
	Long: `Record what an artifact currently is: its content fingerprint and its
declared dependencies.

When the recorded fingerprint differs from the one captured at the
artifact's most recent test run, the artifact is stale until it is
re-tested. Passing --file fingerprints the definition file structurally;
--content-fingerprint supplies a precomputed value instead.

Examples:
  dg observe --kind leaf-unit --path pkg/parser --file defs/parser.json
  dg observe --kind composite-artifact --path svc/api \
      --content-fingerprint abc123 \
      --dep leaf-unit:pkg/parser --dep leaf-unit:pkg/lexer`,
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().StringVar(&observeKind, "kind", "", "Artifact kind (leaf-unit, composite-artifact, orchestrator)")
	observeCmd.Flags().StringVar(&observePath, "path", "", "Artifact logical path")
	observeCmd.Flags().StringVar(&observeContentFP, "content-fingerprint", "", "Precomputed content fingerprint")
	observeCmd.Flags().StringVar(&observeFile, "file", "", "Definition file to fingerprint")
	observeCmd.Flags().StringArrayVar(&observeDeps, "dep", nil, "Declared dependency as kind:path (repeatable)")
	//nolint:errcheck // flag registered above
	observeCmd.MarkFlagRequired("kind")
	//nolint:errcheck // flag registered above
	observeCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(observeCmd)
}

func runObserve(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(observeKind)
	if err != nil {
		return err
	}

	contentFP := observeContentFP
	if contentFP == "" && observeFile != "" {
		data, err := os.ReadFile(observeFile)
		if err != nil {
			return fmt.Errorf("read definition file: %w", err)
		}
		contentFP, err = fingerprint.JSON(data)
		if err != nil {
			return fmt.Errorf("fingerprint definition: %w", err)
		}
	}

	deps, err := parseDependencyRefs(observeDeps)
	if err != nil {
		return err
	}
	var children []string
	if cmd.Flags().Changed("dep") {
		children = childIDs(deps)
	}

	id := identity.ResolveID(kind, observePath)

	if GetDryRun() {
		fmt.Printf("[dry-run] Would observe %s (fingerprint %s, %d dependencies)\n", observePath, contentFP, len(children))
		return nil
	}

	cfg := loadedConfig()
	store := openStore(cfg)

	e, err := recorder.Observe(store, id, kind, identity.NormalizePath(observePath), contentFP, children)
	if err != nil {
		return fmt.Errorf("observe artifact: %w", err)
	}

	return outputStructured(e, func() error {
		fmt.Printf("Observed %s\n", observePath)
		if e.ContentFingerprint != "" {
			fmt.Printf("  Fingerprint: %s\n", e.ContentFingerprint)
		}
		fmt.Printf("  Dependencies: %d\n", len(e.Children))
		fmt.Printf("  Recorded runs: %d\n", len(e.Runs))
		return nil
	})
}
