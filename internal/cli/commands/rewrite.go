package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puff/AsmResolver/builder"
	"github.com/puff/AsmResolver/internal/cli/config"
	"github.com/puff/AsmResolver/internal/cli/ui"
	"github.com/puff/AsmResolver/metadata/serialized"
)

var (
	rewritePreserve []string
	rewriteGapMode  string
	rewriteOutput   string
	rewriteVerbose  bool
	rewriteYes      bool
)

// NewRewriteCommand creates the rewrite command
func NewRewriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite <image>",
		Short: "Rebuild a metadata image under a token preservation policy",
		Long: `Load a metadata image, rebuild its tables, and write the result.

Preservation categories pin the original tokens of the named table
families across the rebuild; anything not listed is free to be
renumbered. Categories can also be set in asmtool.yml under
rewrite.preserve.`,
		Example: `  # Rebuild with no preservation
  asmtool rewrite app.asmi -o rebuilt.asmi

  # Keep type and method tokens stable
  asmtool rewrite app.asmi --preserve preserve_type_tokens --preserve preserve_method_tokens

  # Fail instead of writing tombstone rows for removed entities
  asmtool rewrite app.asmi --preserve all --gap-mode reject`,
		Args: cobra.ExactArgs(1),
		RunE: runRewrite,
	}

	cmd.Flags().StringSliceVar(&rewritePreserve, "preserve", nil, "Preservation categories (repeatable, or 'all')")
	cmd.Flags().StringVar(&rewriteGapMode, "gap-mode", "", "Gap rule: placeholder or reject")
	cmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Output path (default from asmtool.yml)")
	cmd.Flags().BoolVarP(&rewriteVerbose, "verbose", "v", false, "Show detailed build output")
	cmd.Flags().BoolVarP(&rewriteYes, "yes", "y", false, "Overwrite the output file without asking")

	return cmd
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if config.NoColor() {
		ui.DisableColor()
	}

	preserve := rewritePreserve
	if len(preserve) == 0 {
		preserve = cfg.Rewrite.Preserve
	}
	flags, err := builder.ParsePreserveFlags(preserve)
	if err != nil {
		return err
	}
	gapName := rewriteGapMode
	if gapName == "" {
		gapName = cfg.Rewrite.GapMode
	}
	gaps, err := builder.ParseGapMode(gapName)
	if err != nil {
		return err
	}
	output := rewriteOutput
	if output == "" {
		output = cfg.Output
	}

	log := zap.NewNop()
	if rewriteVerbose {
		if log, err = zap.NewDevelopment(); err != nil {
			log = zap.NewNop()
		}
	}
	defer log.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	original, err := serialized.LoadModule(data)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	policy := builder.Policy{Preserve: flags, Gaps: gaps}
	var image *serialized.Image
	err = ui.WithSpinner(cmd.OutOrStdout(), "rebuilding image", config.NoColor(), func() error {
		image, err = builder.New(policy, builder.WithLogger(log)).Build(original)
		return err
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if cfg.Rewrite.Verify {
		reloaded, err := serialized.LoadModule(image.Bytes())
		if err != nil {
			return fmt.Errorf("rebuilt image does not load back: %w", err)
		}
		if err := builder.CheckTokenStability(original, reloaded, flags); err != nil {
			return fmt.Errorf("token stability check failed: %w", err)
		}
		if err := builder.CheckMonotonicGrowth(original.Tables(), reloaded.Tables()); err != nil {
			return fmt.Errorf("growth check failed: %w", err)
		}
		ui.Detail("verification passed")
	}

	if err := confirmOverwrite(output); err != nil {
		return err
	}
	if err := os.WriteFile(output, image.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	ui.Success("wrote %s (%d bytes)", output, len(image.Bytes()))
	return nil
}

// confirmOverwrite prompts before clobbering an existing output file,
// unless --yes was given.
func confirmOverwrite(path string) error {
	if rewriteYes {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	overwrite := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s already exists. Overwrite?", path),
	}
	if err := survey.AskOne(prompt, &overwrite); err != nil {
		return err
	}
	if !overwrite {
		return fmt.Errorf("aborted: %s not overwritten", path)
	}
	return nil
}
