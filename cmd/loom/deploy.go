package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/store"
	"github.com/loomhq/loom/pkg/models"
)

var (
	deployName     string
	deployCron     string
	deployEvery    time.Duration
	deployTimezone string
	deployInput    string
	deployPaused   bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy <design-id>",
	Short: "Create a scheduled deployment for a design",
	Long: `Create a deployment binding a stored design to a recurring trigger.

Exactly one of --cron or --every must be given. The schedule takes effect
the next time 'loom serve' reconciles deployments (at startup).

Examples:
  loom deploy review-pipeline --cron "0 9 * * MON-FRI" --tz America/New_York
  loom deploy nightly-digest --every 6h --input "digest the last 6 hours"`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	if (deployCron == "") == (deployEvery == 0) {
		return fmt.Errorf("exactly one of --cron or --every is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	designID := args[0]
	if _, err := st.GetDesign(ctx, designID); err != nil {
		return fmt.Errorf("load design %s: %w", designID, err)
	}

	status := models.DeploymentActive
	if deployPaused {
		status = models.DeploymentPaused
	}
	name := deployName
	if name == "" {
		name = designID
	}

	dep := &models.Deployment{
		ID:       uuid.NewString(),
		DesignID: designID,
		Name:     name,
		Status:   status,
		Schedule: models.Schedule{
			CronExpression:  deployCron,
			IntervalSeconds: int(deployEvery / time.Second),
			Timezone:        deployTimezone,
			Enabled:         true,
		},
		InputData: deployInput,
		CreatedAt: time.Now(),
	}
	if err := dep.Validate(); err != nil {
		return err
	}
	if err := st.CreateDeployment(ctx, dep); err != nil {
		return fmt.Errorf("create deployment: %w", err)
	}

	printStatus("✓", fmt.Sprintf("Deployed %s as %s (%s)", designID, dep.ID, status), color.FgGreen)
	return nil
}

var undeployCmd = &cobra.Command{
	Use:   "undeploy <deployment-id>",
	Short: "Archive a deployment",
	Long: `Archive a deployment so it is never scheduled again.

Execution logs are kept; the deployment itself stays visible under
'loom deployments' with status archived.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeploymentStatus(cmd.Context(), args[0], models.DeploymentArchived)
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <deployment-id>",
	Short: "Pause a deployment's trigger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeploymentStatus(cmd.Context(), args[0], models.DeploymentPaused)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <deployment-id>",
	Short: "Resume a paused deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDeploymentStatus(cmd.Context(), args[0], models.DeploymentActive)
	},
}

func setDeploymentStatus(ctx context.Context, deploymentID string, status models.DeploymentStatus) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	update := store.DeploymentUpdate{Status: &status}
	if err := st.UpdateDeployment(ctx, deploymentID, update); err != nil {
		return fmt.Errorf("update deployment %s: %w", deploymentID, err)
	}
	printStatus("✓", fmt.Sprintf("Deployment %s is now %s", deploymentID, status), color.FgGreen)
	return nil
}

func init() {
	deployCmd.Flags().StringVar(&deployName, "name", "", "Deployment name (defaults to the design ID)")
	deployCmd.Flags().StringVar(&deployCron, "cron", "", "Cron expression trigger (5 fields, optional leading seconds)")
	deployCmd.Flags().DurationVar(&deployEvery, "every", 0, "Interval trigger (e.g. 30s, 5m, 6h)")
	deployCmd.Flags().StringVar(&deployTimezone, "tz", "", "IANA timezone for cron evaluation")
	deployCmd.Flags().StringVar(&deployInput, "input", "", "Input handed to each scheduled run")
	deployCmd.Flags().BoolVar(&deployPaused, "paused", false, "Create the deployment paused")
}
