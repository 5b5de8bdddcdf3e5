package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/scam-shield/backend/internal/config"
)

const rootLongDesc string = `Backend of the anti-fraud consultant.

Serves the chat, screenshot analysis and knowledge base API and offers a
few offline helpers. Configuration comes from the environment and an
optional .env file in the working directory.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:           "scamshield",
		Short:         "Anti-fraud consultant backend",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; the process environment always wins
			_ = godotenv.Load()
		},
		RunE: serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newCategoriesCmd())
	cmd.AddCommand(newAnalyzeCmd())
	return cmd
}

// loadConfig reads the configuration and builds the process logger.
func loadConfig(w io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg.Server, w)
	log.Logger = logger
	return cfg, logger, nil
}

func newLogger(server config.ServerConfig, w io.Writer) zerolog.Logger {
	if server.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Logger()
}
