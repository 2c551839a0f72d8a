package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomhq/loom/internal/design"
	"github.com/loomhq/loom/internal/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-dir>...",
	Short: "Validate design files",
	Long: `Parse and validate design files without storing or running them.

Each argument is a design file or a directory of design files. Validation
covers the full graph: block IDs, agent rosters, pattern parameters,
connection endpoints, and acyclicity.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	failures := 0
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			printStatus("✗", fmt.Sprintf("%s: %v", arg, err), color.FgRed)
			failures++
			continue
		}

		if info.IsDir() {
			designs, err := design.LoadDir(arg)
			if err == nil {
				for _, d := range designs {
					if verr := graph.Validate(d); verr != nil {
						err = fmt.Errorf("design %s: %w", d.ID, verr)
						break
					}
				}
			}
			if err != nil {
				printStatus("✗", fmt.Sprintf("%s: %v", arg, err), color.FgRed)
				failures++
				continue
			}
			printStatus("✓", fmt.Sprintf("%s: %d design(s) valid", arg, len(designs)), color.FgGreen)
			continue
		}

		d, err := design.LoadFile(arg)
		if err == nil {
			err = graph.Validate(d)
		}
		if err != nil {
			printStatus("✗", fmt.Sprintf("%s: %v", arg, err), color.FgRed)
			failures++
			continue
		}
		printStatus("✓", fmt.Sprintf("%s: design %s (%d block(s))", arg, d.ID, len(d.Blocks)), color.FgGreen)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d path(s) failed validation", failures, len(args))
	}
	return nil
}
