package cmd

import (
	"github.com/spf13/cobra"

	"github.com/memeforge/memeforge/internal/gallerycmd"
)

func newGalleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage saved creations",
		Long: `Tools for the local creation gallery.

List and remove saved creations, or move whole galleries between machines
with parquet archive export/import.`,
	}

	// Add gallery subcommands
	cmd.AddCommand(gallerycmd.NewListCmd())
	cmd.AddCommand(gallerycmd.NewRmCmd())
	cmd.AddCommand(gallerycmd.NewExportCmd())
	cmd.AddCommand(gallerycmd.NewImportCmd())

	return cmd
}
