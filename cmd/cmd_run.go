package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"igloobridge/internal/api"
	"igloobridge/internal/config"
	"igloobridge/internal/ha"
	"igloobridge/internal/igloohome"
	"igloobridge/internal/metrics"
	"igloobridge/internal/mqtt"
	"igloobridge/pkg/plugin"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const mqttConnectAttempts = 10

func newRunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bridge service (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd, opts)
		},
	}
}

// runService connects to MQTT, starts every registered plugin and serves
// the HTTP API until SIGINT or SIGTERM. SIGHUP forces a refresh.
func runService(cmd *cobra.Command, opts *cliOptions) error {
	logger := opts.logger

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateService(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting igloohome bridge",
		zap.String("broker", cfg.MQTT.Broker),
		zap.Duration("scan_interval", cfg.Igloohome.ScanInterval),
		zap.Bool("read_only", cfg.ReadOnly))
	if cfg.ReadOnly {
		logger.Info("Running in READ-ONLY mode - no jobs will be sent to igloohome")
	}

	mqttClient, err := mqtt.ConnectWithRetry(cmd.Context(), cfg.MQTTOptions(), logger, mqttConnectAttempts)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer mqttClient.Close()

	m := metrics.New()

	pctx := plugin.NewContext(
		igloohome.NewClient(cfg.IgloohomeOptions(), logger),
		mqttClient,
		cfg.Topics(),
		logger,
		cfg.ReadOnly,
		cfg.Igloohome.ScanInterval,
	)
	pctx.Metrics = m

	if haClient := connectHomeAssistant(cfg, logger); haClient != nil {
		defer haClient.Disconnect()
		pctx.Notifier = haClient
	}

	plugins, err := plugin.CreateAll(pctx)
	if err != nil {
		return err
	}
	if err := plugin.StartAll(plugins, logger); err != nil {
		return err
	}
	defer plugin.StopAll(plugins, logger)

	var server *api.Server
	for _, p := range plugins {
		if locks, ok := p.(api.LockService); ok {
			server = api.NewServer(locks, m, logger, cfg.API.Port)
			break
		}
	}
	if server != nil && cfg.API.Port > 0 {
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP API: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Warn("Failed to stop HTTP API", zap.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	logger.Info("Bridge running. Press Ctrl+C to exit.")

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				refresh(cmd.Context(), plugins, logger)
				continue
			}
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		case <-cmd.Context().Done():
		}
		break
	}

	logger.Info("Shutting down")
	return nil
}

func refresh(parent context.Context, plugins []plugin.Plugin, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	if err := plugin.RefreshAll(ctx, plugins, logger); err != nil {
		logger.Warn("Refresh failed", zap.Error(err))
	}
}

// connectHomeAssistant returns a connected client, or nil when
// notifications are disabled or the connection fails
func connectHomeAssistant(cfg *config.Config, logger *zap.Logger) *ha.Client {
	if !cfg.NotificationsEnabled() {
		logger.Info("HA_URL not set, failure notifications disabled")
		return nil
	}

	client := ha.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, logger)
	if err := client.Connect(); err != nil {
		logger.Warn("Failed to connect to Home Assistant, failure notifications disabled", zap.Error(err))
		return nil
	}
	return client
}
