package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/analytics"
)

var statsDeployment string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show execution statistics",
	Long: `Summarize execution logs: success rate, durations, and recent
failures. Use --deployment to scope the summary to one deployment.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logs, err := st.ListExecutionLogs(cmd.Context(), statsDeployment, 0)
	if err != nil {
		return fmt.Errorf("list execution logs: %w", err)
	}

	stats := analytics.Compute(logs)
	if stats.Total == 0 {
		fmt.Println("No execution logs.")
		return nil
	}

	scope := "all runs"
	if statsDeployment != "" {
		scope = fmt.Sprintf("deployment %s", statsDeployment)
	}
	fmt.Printf("Executions (%s): %d total\n", scope, stats.Total)
	fmt.Printf("  %s %d   %s %d   %s %d\n",
		color.GreenString("succeeded:"), stats.Succeeded,
		color.RedString("failed:"), stats.Failed,
		color.YellowString("running:"), stats.Running)
	fmt.Printf("  success rate: %.1f%%\n", stats.SuccessRate*100)
	fmt.Printf("  duration: avg %s, p95 %s\n",
		formatDuration(stats.AvgDurationMS), formatDuration(stats.P95DurationMS))

	if len(stats.RecentFailures) > 0 {
		fmt.Println("\nRecent failures:")
		for _, row := range stats.RecentFailures {
			fmt.Printf("  %s  %s  %s\n",
				row.StartedAt.Local().Format("2006-01-02 15:04:05"),
				row.DesignID, firstLine(row.Error))
		}
	}
	return nil
}

func init() {
	statsCmd.Flags().StringVar(&statsDeployment, "deployment", "", "Scope stats to one deployment ID")
}
