package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/onetimechat/relay-server/internal/app"
	"github.com/onetimechat/relay-server/internal/config"
	"github.com/onetimechat/relay-server/internal/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	overrides config.Config
)

var rootCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Anonymous room rendezvous, chat, and WebRTC signaling relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		bootLogger := log.New(overrides.LogLevel)

		cfg, path, err := config.Load(bootLogger, cfgFile)
		if err != nil {
			return err
		}
		cfg.UpdateFrom(overrides)

		logger := log.New(cfg.LogLevel)
		logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting relay server")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}

		if err := application.Run(ctx); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file (default ./config.yaml)")
	rootCmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&overrides.DatabasePath, "db", "", "path to the SQLite database")
	rootCmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
