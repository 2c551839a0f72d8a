package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/design"
	"github.com/loomhq/loom/internal/scheduler"
	"github.com/loomhq/loom/internal/store"
	"github.com/loomhq/loom/pkg/models"
)

var (
	runInput      string
	runDeployment bool
)

var runCmd = &cobra.Command{
	Use:   "run <design-file-or-id>",
	Short: "Run a design immediately",
	Long: `Run a design once and print its output.

The argument is either a path to a design file (.yaml, .yml, or .json) or
the ID of a design already in the store. The run is recorded as a manual
execution log. With --deployment the argument is a deployment ID instead,
and the run counts against that deployment.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client, executor, err := newExecutor(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if runDeployment {
		sched := scheduler.New(st, executor)
		logRow, runErr := sched.RunManual(ctx, args[0], runInput)
		if runErr != nil {
			if logRow != nil {
				printStatus("✗", fmt.Sprintf("Run failed after %s", formatDuration(logRow.DurationMS)), color.FgRed)
			}
			return runErr
		}
		printStatus("✓", fmt.Sprintf("Run succeeded in %s", formatDuration(logRow.DurationMS)), color.FgGreen)
		fmt.Println()
		fmt.Println(logRow.Result)
		printTokenUsage(client)
		return nil
	}

	d, err := resolveDesign(ctx, st, args[0])
	if err != nil {
		return err
	}

	logRow := &models.ExecutionLog{
		ID:          uuid.NewString(),
		DesignID:    d.ID,
		ExecutionID: uuid.NewString(),
		Status:      models.ExecutionRunning,
		TriggerType: models.TriggerManual,
		InputData:   runInput,
		StartedAt:   time.Now(),
	}
	if err := st.CreateExecutionLog(ctx, logRow); err != nil {
		return fmt.Errorf("create execution log: %w", err)
	}

	printStatus("▶", fmt.Sprintf("Running design %s (%d block(s))", d.ID, len(d.Blocks)), color.FgCyan)

	result, runErr := executor.Execute(ctx, d, runInput)

	now := time.Now()
	durationMS := now.Sub(logRow.StartedAt).Milliseconds()
	update := store.ExecutionLogUpdate{
		CompletedAt: &now,
		DurationMS:  &durationMS,
	}
	if runErr != nil {
		failed := models.ExecutionFailed
		msg := runErr.Error()
		update.Status = &failed
		update.Error = &msg
	} else {
		succeeded := models.ExecutionSucceeded
		update.Status = &succeeded
		update.Result = &result.Output
	}
	if err := st.UpdateExecutionLog(ctx, logRow.ID, update); err != nil {
		return fmt.Errorf("record execution log: %w", err)
	}

	if runErr != nil {
		printStatus("✗", fmt.Sprintf("Run failed after %s", formatDuration(durationMS)), color.FgRed)
		return runErr
	}

	printStatus("✓", fmt.Sprintf("Run succeeded in %s", formatDuration(durationMS)), color.FgGreen)
	fmt.Println()
	fmt.Println(result.Output)
	printTokenUsage(client)
	return nil
}

// resolveDesign loads the argument as a design file when it looks like one,
// otherwise treats it as a stored design ID.
func resolveDesign(ctx context.Context, st store.Store, arg string) (*models.Design, error) {
	if isDesignPath(arg) {
		d, err := design.LoadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("load design file: %w", err)
		}
		return d, nil
	}
	d, err := st.GetDesign(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("load design %s: %w", arg, err)
	}
	return d, nil
}

func isDesignPath(arg string) bool {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if strings.HasSuffix(arg, ext) {
			return true
		}
	}
	return false
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "Input handed to the design's root blocks")
	runCmd.Flags().BoolVar(&runDeployment, "deployment", false, "Treat the argument as a deployment ID")
}
