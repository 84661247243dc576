package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jewhyena/tilepyramid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the tile planning API",
	Long: `Start an HTTP server that provides a REST API for tile pyramid planning.

The server plans the pyramid of a warped raster, lists the tiles of a bounding
box and describes single tiles.

Examples:
  # Start server on default port 8080
  tilepyramid serve

  # Start server on custom port
  tilepyramid serve --port 3000

  # Start server with custom bind address and a smaller response limit
  tilepyramid serve --bind 0.0.0.0 --port 8080 --max-tiles 5000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int("max-tiles", server.DefaultMaxTiles, "largest number of tiles returned by one request")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.max-tiles", serveCmd.Flags().Lookup("max-tiles"))
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := fmt.Sprintf("%s:%d", viper.GetString("server.bind"), viper.GetInt("server.port"))
	timeout := viper.GetDuration("server.timeout")

	tmpl, err := keyTemplate()
	if err != nil {
		return err
	}

	apiServer := server.NewServer(server.Options{
		Version:     rootCmd.Version,
		MaxTiles:    viper.GetInt("server.max-tiles"),
		KeyTemplate: tmpl,
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Handler(timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting tilepyramid server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Plan endpoint: http://%s/api/v1/plan\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Tiles endpoint: http://%s/api/v1/tiles\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}
	return nil
}
