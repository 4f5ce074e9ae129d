package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/depgate/internal/config"
	"github.com/boshu2/depgate/internal/registry"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dg",
	Short: "Dependency gate for agent-built artifacts",
	Long: `dg tracks the test health of agent-built artifacts and gates
operations that depend on them.

Evidence Commands:
  record       Record a test run for an artifact
  observe      Record an artifact's content fingerprint and dependencies

Decision Commands:
  check        Evaluate an artifact's health
  gate         Evaluate a proposed create or update against its dependencies
  hook         Process an interception event from an agent host

Other Commands:
  status       Show registry summary
  version      Show version information

Health is earned per artifact version: enough passing runs with distinct
inputs, none after the definition last changed, and every dependency
healthy too.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (json, table, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .depgate/config.yaml)")
}

// GetDryRun returns the dry-run flag value for use by subcommands.
func GetDryRun() bool {
	return dryRun
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetConfigFile returns the config file path for use by subcommands.
func GetConfigFile() string {
	return cfgFile
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose || loadedConfig().Verbose {
		fmt.Printf(format, args...)
	}
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(GetConfigFile())
	if path == "" {
		return
	}
	_ = os.Setenv("DEPGATE_CONFIG", path)
}

// loadedConfig resolves the effective configuration, folding flag values on
// top of env, project, and home config.
func loadedConfig() *config.Config {
	overrides := &config.Config{
		Output:  output,
		Verbose: verbose,
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return config.Default()
	}
	return cfg
}

// GetOutput returns the effective output format for use by subcommands.
func GetOutput() string {
	return loadedConfig().Output
}

// openStore opens the registry store at the configured location.
func openStore(cfg *config.Config) *registry.Store {
	return registry.NewStore(cfg.RegistryPath())
}
