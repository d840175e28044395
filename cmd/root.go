package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memeforge",
		Short: "Meme animation tool powered by generative image models",
		Long: `Memeforge turns a prompt (and optionally a reference image) into a looping
animation: Gemini generates a 3x3 sprite sheet, memeforge slices it into
frames and exports animated GIFs.

Run the web interface with 'memeforge serve', or generate a GIF straight
from the command line with 'memeforge generate'.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newGalleryCmd())

	return cmd
}
