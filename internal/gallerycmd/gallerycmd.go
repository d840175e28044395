// Package gallerycmd implements the gallery CLI subcommands.
package gallerycmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/memeforge/memeforge/internal/gallery"
)

// StorePath resolves the gallery database path from the given data dir,
// falling back to MEMEFORGE_DATA_DIR and then ./data.
func StorePath(dataDir string) string {
	if dataDir == "" {
		dataDir = os.Getenv("MEMEFORGE_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "data"
	}
	return filepath.Join(dataDir, "memeforge.db")
}

func addDataDirFlag(cmd *cobra.Command, dataDir *string) {
	cmd.Flags().StringVar(dataDir, "data-dir", "", "Data directory (default $MEMEFORGE_DATA_DIR or ./data)")
}

func NewListCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved creations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := gallery.Open(StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			creations, err := store.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tFRAME MS\tSTYLE\tPROMPT")
			for _, c := range creations {
				prompt := c.Prompt
				if len(prompt) > 60 {
					prompt = prompt[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.FrameDurationMS, c.Style, prompt)
			}
			return w.Flush()
		},
	}

	addDataDirFlag(cmd, &dataDir)
	return cmd
}

func NewRmCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a creation by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := gallery.Open(StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("Removed", args[0])
			return nil
		},
	}

	addDataDirFlag(cmd, &dataDir)
	return cmd
}
