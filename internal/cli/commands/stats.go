package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/puff/AsmResolver/internal/cli/config"
	"github.com/puff/AsmResolver/internal/cli/ui"
	"github.com/puff/AsmResolver/metadata"
	"github.com/puff/AsmResolver/metadata/serialized"
)

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <image>",
		Short: "Show table row counts and module information for an image",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	noColor := config.NoColor()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	module, err := serialized.LoadModule(data)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	out := cmd.OutOrStdout()

	ui.Header(out, "Module", noColor)
	info := ui.NewKeyValueTable(out, noColor)
	info.AddRow("Name", module.Name())
	info.AddRow("MVID", module.MVID().String())
	info.AddRow("Top-level types", fmt.Sprintf("%d", len(module.TopLevelTypes())))
	info.Render()
	fmt.Fprintln(out)

	ui.Header(out, "Tables", noColor)
	table := ui.NewTable(out, []string{"TABLE", "ROWS"}, noColor)
	tables := module.Tables()
	for idx := metadata.TableModule; idx.IsKnown(); idx++ {
		count := tables.RowCount(idx)
		if count == 0 {
			continue
		}
		table.AddRow(idx.String(), fmt.Sprintf("%d", count))
	}
	table.Render()
	return nil
}
