package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/design"
	"github.com/loomhq/loom/internal/graph"
	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/internal/scheduler"
)

var (
	rootConfigPath string
	rootDebug      bool
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Multi-agent workflow runner",
	Long: `Loom runs designs: directed graphs of blocks, each block an LLM
multi-agent orchestration pattern (sequential, parallel, hierarchical,
debate, or routing).

Designs are defined in YAML or JSON files, run on demand with 'loom run',
or deployed on a cron/interval schedule and executed by 'loom serve'.
Every run is recorded as an execution log.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootDebug {
			orchestrator.SetDebugLog(log.Printf)
			graph.SetDebugLog(log.Printf)
			scheduler.SetDebugLog(log.Printf)
			design.SetDebugLog(log.Printf)
			api.SetDebugLog(log.Printf)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to a config file (overrides discovery)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(undeployCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
