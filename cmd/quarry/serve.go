package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quarry/internal/api"
	"quarry/internal/backends"
	"quarry/internal/config"
	"quarry/internal/logging"
)

var (
	serveConfig     string
	serveStatusFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search server",
	Long: `Start the Quarry HTTP server. Loads every configured tree's indexes
into memory once, then serves search, source and definition requests until
stopped.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to the JSON configuration file")
	serveCmd.Flags().StringVar(&serveStatusFile, "status-file", "", "File to append the startup marker to (overrides config)")
	serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveStatusFile != "" {
		cfg.StatusFile = serveStatusFile
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})

	// Loading the indexes is the only fatal failure; everything after
	// this point degrades per request instead of taking the server down.
	b, err := backends.Load(cfg, logger)
	if err != nil {
		logger.Error("Failed to load indexes", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	defer b.Close()

	server := api.NewServer(cfg, b, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	if err := markLoaded(cfg.StatusFile); err != nil {
		logger.Warn("Failed to write status file", map[string]interface{}{
			"statusFile": cfg.StatusFile,
			"error":      err.Error(),
		})
	}

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	}

	return nil
}

// markLoaded appends the startup marker. The status file is shared with
// other components, so it is appended to, never truncated.
func markLoaded(statusFile string) error {
	if statusFile == "" {
		return nil
	}
	f, err := os.OpenFile(statusFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString("quarry loaded\n")
	return err
}
