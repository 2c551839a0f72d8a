package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom/pkg/models"
)

var deploymentsAll bool

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List deployments",
	Long: `List deployments with their schedule, status, and run counters.

Archived deployments are hidden unless --all is set.`,
	RunE: runDeployments,
}

func runDeployments(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	deps, err := st.ListDeployments(cmd.Context())
	if err != nil {
		return fmt.Errorf("list deployments: %w", err)
	}

	shown := 0
	for _, dep := range deps {
		if dep.Status == models.DeploymentArchived && !deploymentsAll {
			continue
		}
		if shown == 0 {
			fmt.Printf("%-38s %-20s %-10s %-22s %6s  %s\n",
				"ID", "NAME", "STATUS", "SCHEDULE", "RUNS", "LAST RUN")
		}
		shown++

		lastRun := "-"
		if dep.LastExecutionAt != nil {
			lastRun = dep.LastExecutionAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-38s %-20s %-10s %-22s %6d  %s\n",
			dep.ID, dep.Name, deploymentStatusLabel(dep.Status),
			formatSchedule(dep.Schedule), dep.ExecutionCount, lastRun)
	}

	if shown == 0 {
		fmt.Println("No deployments. Run 'loom deploy <design-id>' to create one.")
	}
	return nil
}

func deploymentStatusLabel(status models.DeploymentStatus) string {
	switch status {
	case models.DeploymentActive:
		return color.GreenString(string(status))
	case models.DeploymentPaused:
		return color.YellowString(string(status))
	default:
		return color.New(color.Faint).Sprint(string(status))
	}
}

// formatSchedule renders a schedule for table output.
func formatSchedule(s models.Schedule) string {
	if !s.Enabled {
		return "disabled"
	}
	if s.IntervalSeconds > 0 {
		return fmt.Sprintf("every %ds", s.IntervalSeconds)
	}
	if s.Timezone != "" {
		return fmt.Sprintf("%s (%s)", s.CronExpression, s.Timezone)
	}
	return s.CronExpression
}

func init() {
	deploymentsCmd.Flags().BoolVar(&deploymentsAll, "all", false, "Include archived deployments")
}
