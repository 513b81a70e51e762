package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/puff/AsmResolver/cil"
	"github.com/puff/AsmResolver/internal/cli/config"
	"github.com/puff/AsmResolver/internal/cli/ui"
	"github.com/puff/AsmResolver/metadata"
	"github.com/puff/AsmResolver/metadata/serialized"
)

var (
	dumpCode   bool
	dumpTokens bool
	dumpFilter string
)

// NewDumpCommand creates the dump command
func NewDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <image>",
		Short: "Print the types, members and code of a metadata image",
		Example: `  # List all types and members
  asmtool dump app.asmi

  # Include metadata tokens and disassembled method bodies
  asmtool dump app.asmi --tokens --code`,
		Args: cobra.ExactArgs(1),
		RunE: runDump,
	}

	cmd.Flags().BoolVar(&dumpCode, "code", false, "Disassemble method bodies")
	cmd.Flags().BoolVar(&dumpTokens, "tokens", false, "Show metadata tokens")
	cmd.Flags().StringVar(&dumpFilter, "type", "", "Dump only the type with this full name")

	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	module, err := serialized.LoadModule(data)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	ui.Info("module %s (MVID %s)", module.Name(), module.MVID())
	if dumpFilter != "" {
		return dumpSingleType(cmd, module)
	}
	for _, t := range module.TopLevelTypes() {
		dumpType(module, t, "")
	}
	return nil
}

// dumpSingleType dumps only the type named by --type, suggesting close
// matches when the name does not resolve.
func dumpSingleType(cmd *cobra.Command, module *metadata.Module) error {
	var names []string
	for _, t := range module.TopLevelTypes() {
		if t.FullName() == dumpFilter {
			dumpType(module, t, "")
			return nil
		}
		names = append(names, t.FullName())
	}

	suggestions := ui.FindSimilar(dumpFilter, names)
	fmt.Fprint(cmd.ErrOrStderr(), ui.TypeNotFoundError(dumpFilter, suggestions, config.NoColor()))
	return fmt.Errorf("type %q not found", dumpFilter)
}

func dumpType(module *metadata.Module, t *metadata.TypeDefinition, indent string) {
	fmt.Printf("%s.class %s%s\n", indent, t.FullName(), tokenSuffix(t))
	for _, f := range t.Fields() {
		fmt.Printf("%s  .field %s%s\n", indent, f.Name(), tokenSuffix(f))
	}
	for _, m := range t.Methods() {
		fmt.Printf("%s  .method %s%s\n", indent, m.Name(), tokenSuffix(m))
		if dumpCode && len(m.RawCode()) > 0 {
			dumpBody(module, m, indent+"    ")
		}
	}
	for _, nested := range t.NestedTypes() {
		dumpType(module, nested, indent+"  ")
	}
}

func dumpBody(module *metadata.Module, m *metadata.MethodDefinition, indent string) {
	raw, err := cil.DecodeRaw(m.RawCode())
	if err != nil {
		ui.Error("%s: %v", m.FullName(), err)
		return
	}
	body := cil.NewMethodBody(m)
	resolver := cil.NewOperandResolver(module, body)
	for _, ins := range resolver.Disassemble(raw) {
		fmt.Printf("%s%s\n", indent, ins)
	}
}

func tokenSuffix(e metadata.Entity) string {
	if !dumpTokens {
		return ""
	}
	return fmt.Sprintf(" /* %s */", e.Token())
}
