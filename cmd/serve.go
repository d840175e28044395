package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/gallerycmd"
	"github.com/memeforge/memeforge/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Starts the Memeforge web interface on the specified port.

The web interface lets you type a prompt, optionally attach a reference
image, preview the resulting animation live, and download it as a GIF.
Creations persist in a local gallery under the data directory.`,
		Example: `  # Start server on default port 8888
  memeforge serve

  # Start server on custom port with a custom data directory
  memeforge serve --port 3000 --data-dir /var/lib/memeforge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := gallery.Open(gallerycmd.StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			handler := handlers.New(store)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/generate", handler.HandleGenerate)
			mux.HandleFunc("/api/creations", handler.HandleCreations)
			mux.HandleFunc("/api/creations/", handler.HandleCreationDetail)
			mux.HandleFunc("/api/key", handler.HandleAPIKey)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Memeforge interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default $MEMEFORGE_DATA_DIR or ./data)")

	return cmd
}
