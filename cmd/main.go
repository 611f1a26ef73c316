package main

import (
	"fmt"
	"os"
	"time"

	"igloobridge/internal/config"
	"igloobridge/internal/igloohome"
	_ "igloobridge/internal/plugins/igloohome"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliOptions holds persistent flags and the logger built from them
type cliOptions struct {
	configDir string
	readOnly  bool
	debug     bool
	loadedEnv bool
	logger    *zap.Logger

	// cfg is set by newAPIClient
	cfg *config.Config
}

// commandTimeout bounds one-shot CLI commands
const commandTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running without a subcommand starts
// the bridge service.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "igloobridge",
		Short: "igloohome lock bridge for Home Assistant",
		Long: `igloobridge exposes igloohome locks to Home Assistant over MQTT discovery.

Commands are sent to the igloohome cloud as bridge-proxied jobs through the
bridge currently linked to each lock. Environment variables (optionally from
a .env file) override igloohome.yaml in the config directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err == nil {
				opts.loadedEnv = true
			}

			var err error
			if opts.debug {
				opts.logger, err = zap.NewDevelopment()
			} else {
				opts.logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "directory containing igloohome.yaml (default $CONFIG_DIR or ./configs)")
	root.PersistentFlags().BoolVar(&opts.readOnly, "read-only", false, "log commands instead of sending jobs (also READ_ONLY=true)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "development logging")

	root.AddCommand(
		newRunCmd(opts),
		newDevicesCmd(opts),
		newDeviceCmd(opts),
		newJobCmd(opts, "lock", "Lock a lock"),
		newJobCmd(opts, "unlock", "Unlock a lock"),
		newJobCmd(opts, "open", "Unlatch a lock (sent as an unlock job)"),
	)

	return root
}

// loadConfig reads configuration and applies the --read-only flag
func (o *cliOptions) loadConfig() (*config.Config, error) {
	if !o.loadedEnv {
		o.logger.Warn("No .env file found, using environment variables")
	}

	dir := o.configDir
	if dir == "" {
		dir = envOr("CONFIG_DIR", "./configs")
	}

	cfg, err := config.Load(dir, o.logger)
	if err != nil {
		return nil, err
	}
	if o.readOnly {
		cfg.ReadOnly = true
	}
	return cfg, nil
}

// newAPIClient loads and validates configuration and creates a cloud client
func (o *cliOptions) newAPIClient() (*igloohome.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	return igloohome.NewClient(cfg.IgloohomeOptions(), o.logger), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
