package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/evomimic/holonengine/internal/config"
	"github.com/evomimic/holonengine/internal/dance"
	"github.com/evomimic/holonengine/internal/dancetransport"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/holonstore"
	"github.com/evomimic/holonengine/internal/space"
	"github.com/spf13/cobra"
)

// serveCmd boots a single-node engine instance: Raft-backed store, space
// manager, dance dispatcher, and dance transport listener, grounded on the
// teacher's clusterInitCmd (construct manager, bootstrap, start the
// supporting services, serve, wait for a signal, shut down in reverse).
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a holon engine instance",
	Long: `Serve bootstraps a single-node Raft-backed holon store, wires it into a
HolonSpaceManager and dance dispatcher, and exposes both the dance
transport (for holonctl and other clients) and a Prometheus metrics
endpoint. Press Ctrl+C to shut down.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		cfg := config.Default()
		if configFile != "" {
			loaded, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		holonlog.Init(holonlog.Config{Level: cfg.LogLevelValue(), JSONOutput: cfg.LogJSON})
		log := holonlog.WithComponent("holonctl-serve")

		store, err := holonstore.New(holonstore.Config{
			NodeID:   cfg.NodeID,
			BindAddr: cfg.BindAddr,
			DataDir:  cfg.DataDir,
		})
		if err != nil {
			return fmt.Errorf("construct store: %w", err)
		}
		if err := store.Bootstrap(); err != nil {
			return fmt.Errorf("bootstrap raft: %w", err)
		}
		log.Info().Str("bind_addr", cfg.BindAddr).Msg("raft bootstrapped")

		mgr, err := space.InitSpace(holon.SpaceId(cfg.SpaceID), store)
		if err != nil {
			return fmt.Errorf("init space: %w", err)
		}
		defer space.Deregister(mgr.SpaceID())

		dispatcher := dance.NewDispatcher(mgr)
		server := dancetransport.NewServer(dispatcher)

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		go func() {
			http.Handle("/metrics", holonmetrics.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")

		errCh := make(chan error, 1)
		go func() {
			if err := server.Serve(cfg.DanceAddr); err != nil {
				errCh <- err
			}
		}()
		log.Info().Str("addr", cfg.DanceAddr).Msg("dance transport listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info().Msg("shutting down")
		case err := <-errCh:
			log.Error().Err(err).Msg("dance transport failed")
		}

		server.Stop()
		if err := store.Shutdown(); err != nil {
			return fmt.Errorf("shutdown store: %w", err)
		}
		log.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML config file (overrides config.Default())")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Prometheus metrics listen address")
	rootCmd.AddCommand(serveCmd)
}
