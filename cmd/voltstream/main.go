package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/voltstream/voltstream/pkg/api"
	"github.com/voltstream/voltstream/pkg/config"
	"github.com/voltstream/voltstream/pkg/log"
	"github.com/voltstream/voltstream/pkg/store"
	"github.com/voltstream/voltstream/pkg/stream"
	"github.com/voltstream/voltstream/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voltstream",
	Short: "Voltstream - realtime device telemetry fan-out service",
	Long: `Voltstream serves the realtime state of electrical energy meters:
an SSE stream that pushes device snapshots to every connected dashboard,
plus one-shot query endpoints for the same data.

The broadcast cycle runs only while at least one client is connected.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Voltstream version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Voltstream version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the telemetry fan-out server",
	Long: `Start the HTTP server with the SSE stream, the snapshot query
endpoints, and the health and metrics surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %v", err)
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.Logging.Level),
			JSONOutput: cfg.Logging.JSON,
			Output:     os.Stderr,
		})
		logger := log.WithComponent("main")
		logger.Info().
			Str("version", Version).
			Str("driver", cfg.Database.Driver).
			Msg("starting voltstream")

		db, err := store.Connect(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		defer func() {
			if err := store.Close(db); err != nil {
				logger.Error().Err(err).Msg("failed to close database")
			}
		}()

		st := store.New(db)

		registry := stream.NewRegistry(
			time.Duration(cfg.Stream.HeartbeatIntervalSeconds) * time.Second)
		broadcaster := stream.NewBroadcaster(
			registry,
			stream.SourceFunc(func(ctx context.Context) ([]types.DeviceSnapshot, error) {
				return st.FetchSnapshot(ctx, store.JoinInner)
			}),
			time.Duration(cfg.Stream.BroadcastIntervalSeconds)*time.Second,
			time.Duration(cfg.Stream.FetchTimeoutSeconds)*time.Second,
		)
		// The first client connecting wakes the broadcast cycle; it halts
		// itself when the registry drains
		registry.OnRegister(broadcaster.EnsureRunning)

		api.Version = Version
		server := api.NewServer(st, registry, broadcaster, api.Options{
			SSERatePerSecond:  cfg.Server.SSERatePerSecond,
			SSERateBurst:      cfg.Server.SSERateBurst,
			BroadcastInterval: time.Duration(cfg.Stream.BroadcastIntervalSeconds) * time.Second,
			HeartbeatInterval: time.Duration(cfg.Stream.HeartbeatIntervalSeconds) * time.Second,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.Server.Listen)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case err := <-errCh:
			return fmt.Errorf("server error: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		broadcaster.Stop()

		logger.Info().Msg("shutdown complete")
		return nil
	},
}
