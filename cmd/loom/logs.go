package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	logsDeployment string
	logsLimit      int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show execution logs",
	Long: `Show execution logs, newest first.

Without flags, shows the most recent runs across all deployments and
manual runs. Use --deployment to filter to one deployment.`,
	RunE: runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logs, err := st.ListExecutionLogs(cmd.Context(), logsDeployment, logsLimit)
	if err != nil {
		return fmt.Errorf("list execution logs: %w", err)
	}
	if len(logs) == 0 {
		fmt.Println("No execution logs.")
		return nil
	}

	fmt.Printf("%-38s %-20s %-10s %-9s %9s  %s\n",
		"ID", "DESIGN", "STATUS", "TRIGGER", "DURATION", "STARTED")
	for _, row := range logs {
		fmt.Printf("%-38s %-20s %-10s %-9s %9s  %s\n",
			row.ID, row.DesignID,
			statusColor(row.Status).Sprint(string(row.Status)),
			row.TriggerType,
			formatDuration(row.DurationMS),
			row.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if row.Error != "" {
			fmt.Printf("    %s\n", firstLine(row.Error))
		}
	}
	return nil
}

// firstLine truncates a message to its first line for table output.
func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

func init() {
	logsCmd.Flags().StringVar(&logsDeployment, "deployment", "", "Filter logs to one deployment ID")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum rows to show (0 = no limit)")
}
