package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/fingerprint"
	"github.com/boshu2/depgate/internal/identity"
	"github.com/boshu2/depgate/internal/recorder"
	"github.com/boshu2/depgate/internal/registry"
)

var (
	recordKind      string
	recordPath      string
	recordInput     string
	recordInputFile string
	recordInputFP   string
	recordContentFP string
	recordFailed    bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a test run for an artifact",
	Long: `Record the outcome of one test run in the registry.

The test input is fingerprinted structurally, so reformatting the same
payload never counts as a new input. A run counts as novel only if its
input fingerprint has never been seen for this artifact, across its
whole history.

Examples:
  dg record --kind leaf-unit --path pkg/parser --input '{"case":"empty"}'
  dg record --kind leaf-unit --path pkg/parser --input-file case.json --failed
  dg record --kind leaf-unit --path pkg/parser --input-fingerprint abc123`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordKind, "kind", "", "Artifact kind (leaf-unit, composite-artifact, orchestrator)")
	recordCmd.Flags().StringVar(&recordPath, "path", "", "Artifact logical path")
	recordCmd.Flags().StringVar(&recordInput, "input", "", "Test input payload (JSON or free text)")
	recordCmd.Flags().StringVar(&recordInputFile, "input-file", "", "Read the test input payload from a file")
	recordCmd.Flags().StringVar(&recordInputFP, "input-fingerprint", "", "Precomputed input fingerprint (skips hashing)")
	recordCmd.Flags().StringVar(&recordContentFP, "content-fingerprint", "", "Artifact content fingerprint observed at test time")
	recordCmd.Flags().BoolVar(&recordFailed, "failed", false, "Record the run as failed (default is passed)")
	//nolint:errcheck // flag registered above
	recordCmd.MarkFlagRequired("kind")
	//nolint:errcheck // flag registered above
	recordCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(recordCmd)
}

// resolveInputFingerprint picks the input fingerprint from the flags, in
// precedence order: explicit fingerprint, inline input, input file.
func resolveInputFingerprint() (string, error) {
	if recordInputFP != "" {
		return recordInputFP, nil
	}
	raw := []byte(recordInput)
	if recordInputFile != "" {
		data, err := os.ReadFile(recordInputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		raw = data
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("one of --input, --input-file, or --input-fingerprint is required")
	}
	fp, err := fingerprint.JSON(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint input: %w", err)
	}
	return fp, nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(recordKind)
	if err != nil {
		return err
	}
	inputFP, err := resolveInputFingerprint()
	if err != nil {
		return err
	}
	id := identity.ResolveID(kind, recordPath)
	passed := !recordFailed

	if GetDryRun() {
		fmt.Printf("[dry-run] Would record run for %s (input %s, passed=%v)\n", recordPath, inputFP, passed)
		return nil
	}

	cfg := loadedConfig()
	store := openStore(cfg)

	if recordContentFP != "" {
		if _, err := recorder.Observe(store, id, kind, identity.NormalizePath(recordPath), recordContentFP, nil); err != nil {
			return fmt.Errorf("observe content fingerprint: %w", err)
		}
	}

	run, err := recorder.Record(store, id, kind, inputFP, passed)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return outputRecord(store, id, run)
}

type recordOutput struct {
	ID                string `json:"id"`
	Path              string `json:"path"`
	Passed            bool   `json:"passed"`
	Novel             bool   `json:"novel"`
	InputFingerprint  string `json:"input_fingerprint"`
	NovelPassingCount int    `json:"novel_passing_count"`
	TotalRuns         int    `json:"total_runs"`
}

func outputRecord(store *registry.Store, id string, run *registry.TestRun) error {
	e := store.Load().Get(id)
	out := recordOutput{
		ID:               id,
		Path:             recordPath,
		Passed:           run.Passed,
		Novel:            run.Novel,
		InputFingerprint: run.InputFingerprint,
	}
	if e != nil {
		out.NovelPassingCount = e.NovelPassingCount()
		out.TotalRuns = len(e.Runs)
	}

	return outputStructured(out, func() error {
		verdict := "PASS"
		if !run.Passed {
			verdict = "FAIL"
		}
		novelty := "replay"
		if run.Novel {
			novelty = "novel"
		}
		fmt.Printf("Recorded %s run for %s (%s input)\n", verdict, recordPath, novelty)
		fmt.Printf("  Distinct passing inputs: %d\n", out.NovelPassingCount)
		fmt.Printf("  Total runs: %d\n", out.TotalRuns)
		return nil
	})
}
