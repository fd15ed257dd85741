package cli

import (
	"fmt"
	"os"

	"bondrizz-funnel/internal/catalog"
	"github.com/spf13/cobra"
)

// NewCatalogCmd groups offline catalog tooling.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and export question catalogs",
	}
	cmd.AddCommand(newCatalogCheckCmd(), newCatalogExportCmd())
	return cmd
}

func newCatalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate catalog files against the schema and flow rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				format, err := catalog.FormatFromPath(path)
				if err != nil {
					return err
				}
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				c, err := catalog.Decode(raw, format)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s ok (%d questions, %d interstitials)\n",
					path, c.ID, len(c.Questions), len(c.Interstitials))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalogs invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in Bond Rizz catalog as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := catalog.Encode(catalog.BondRizz(), catalog.Format(format))
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			return os.WriteFile(out, raw, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(catalog.FormatYAML), "json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
