package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func NewGenDocsCommand() *cobra.Command {
	var outDir, format string

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI reference pages",
		Long: `Generate a reference page for every clinic_ledger command.

Markdown goes to ./docs/cli by default; --format man writes troff pages instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", outDir, err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create docs directory %q: %w", dir, err)
			}

			switch format {
			case "markdown", "md":
				err = doc.GenMarkdownTree(cmd.Root(), dir)
			case "man":
				err = doc.GenManTree(cmd.Root(), &doc.GenManHeader{
					Title:   "CLINIC_LEDGER",
					Section: "1",
					Source:  "clinic_ledger",
				}, dir)
			default:
				return fmt.Errorf("unknown format %q, want markdown or man", format)
			}
			if err != nil {
				return fmt.Errorf("failed to generate CLI docs: %w", err)
			}

			fmt.Printf("CLI docs generated in %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "docs/cli", "Output directory")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or man")

	return cmd
}
