package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/health"
	"github.com/boshu2/depgate/internal/registry"
	"github.com/boshu2/depgate/internal/worker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry summary",
	Long: `Display the current state of the health registry.

Shows:
  - Registry location and whether it exists
  - Artifact count and totals by health status
  - Per-artifact status table

Examples:
  dg status
  dg status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	RegistryPath string         `json:"registry_path"`
	Initialized  bool           `json:"initialized"`
	Artifacts    int            `json:"artifacts"`
	ByStatus     map[string]int `json:"by_status,omitempty"`
	Entries      []statusEntry  `json:"entries,omitempty"`
}

type statusEntry struct {
	Path              string        `json:"path"`
	Kind              string        `json:"kind"`
	Status            health.Status `json:"status"`
	NovelPassingCount int           `json:"novel_passing_count"`
	TotalRuns         int           `json:"total_runs"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig()
	path := cfg.RegistryPath()

	out := &statusOutput{RegistryPath: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return outputStatus(out)
	}
	out.Initialized = true

	reg := openStore(cfg).Load()
	out.Artifacts = len(reg.Entities)
	out.ByStatus = map[string]int{}

	ids := make([]string, 0, len(reg.Entities))
	for id := range reg.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Evaluation is pure over the loaded registry, so fanning out is safe.
	pool := worker.NewPool[*health.Result](0)
	results := pool.Process(ids, func(id string) (*health.Result, error) {
		return health.EvaluateWith(reg, id, true, cfg.RequiredNovelRuns), nil
	})

	for i, r := range results {
		e := reg.Get(ids[i])
		out.ByStatus[string(r.Value.Status)]++
		out.Entries = append(out.Entries, statusEntry{
			Path:              displayPath(e, ids[i]),
			Kind:              string(e.Kind),
			Status:            r.Value.Status,
			NovelPassingCount: r.Value.NovelPassingCount,
			TotalRuns:         len(e.Runs),
		})
	}
	sort.Slice(out.Entries, func(i, j int) bool {
		return out.Entries[i].Path < out.Entries[j].Path
	})

	return outputStatus(out)
}

func displayPath(e *registry.Entity, id string) string {
	if e.Path != "" {
		return e.Path
	}
	return id
}

func outputStatus(out *statusOutput) error {
	return outputStructured(out, func() error {
		fmt.Println("Dependency Gate Status")
		fmt.Println("======================")
		fmt.Println()

		if !out.Initialized {
			fmt.Printf("Registry: %s (not created yet)\n", out.RegistryPath)
			fmt.Println()
			fmt.Println("Record a run with 'dg record' to create it.")
			return nil
		}

		fmt.Printf("Registry: %s\n", out.RegistryPath)
		fmt.Printf("Artifacts: %d\n", out.Artifacts)

		if len(out.ByStatus) > 0 {
			fmt.Println("\nBy status:")
			statuses := make([]string, 0, len(out.ByStatus))
			for s := range out.ByStatus {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				fmt.Printf("  %-8s %d\n", s, out.ByStatus[s])
			}
		}

		if len(out.Entries) > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			//nolint:errcheck // CLI tabwriter output to stdout, errors unlikely and non-recoverable
			fmt.Fprintln(w, "PATH\tKIND\tSTATUS\tNOVEL\tRUNS")
			//nolint:errcheck // CLI tabwriter output to stdout
			fmt.Fprintln(w, "----\t----\t------\t-----\t----")
			for _, e := range out.Entries {
				//nolint:errcheck // CLI tabwriter output to stdout
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					e.Path, e.Kind, e.Status, e.NovelPassingCount, e.TotalRuns)
			}
			//nolint:errcheck // CLI tabwriter output to stdout
			w.Flush()
		}

		return nil
	})
}
