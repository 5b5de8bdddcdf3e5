package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/scam-shield/backend/internal/config"
	"github.com/zhouzirui/scam-shield/backend/internal/handler"
	"github.com/zhouzirui/scam-shield/backend/internal/handler/system"
	"github.com/zhouzirui/scam-shield/backend/internal/model/fraud"
	"github.com/zhouzirui/scam-shield/backend/internal/service/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/conversation"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
)

const serveShortDesc string = "Run the HTTP API (default command)"

type serveCommander struct {
	addr string
}

func newServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cmder.addr, "addr", "", "Listen address, overrides PORT")
	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	if c.addr != "" {
		cfg.Server.Addr = c.addr
	}

	deps := handler.Dependencies{
		Logger:      logger,
		Knowledge:   fraud.Seed(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Info:        system.Info{Environment: cfg.Server.Env},
	}

	if cfg.AI.Enabled() {
		b, err := resolveBackends(ctx, cfg.AI)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize AI backends, continuing without chat and analysis")
		} else {
			deps.Chat, deps.Analyzer = buildServices(b, cfg, logger)
			deps.Info.Provider = b.name
			deps.Info.Model = cfg.AI.Model()
			logger.Info().Str("provider", b.name).Str("model", cfg.AI.Model()).Msg("AI backends initialized")
		}
	} else {
		logger.Warn().Msg("no AI credentials configured, chat and analysis are disabled")
	}

	if deps.Chat != nil {
		go sweepSessions(ctx, deps.Chat, cfg.Chat.SessionTTL, logger)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", srv.Addr).Str("env", cfg.Server.Env).Msg("scam-shield backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Error().Err(err).Msg("server error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func buildServices(b *backends, cfg *config.Config, logger zerolog.Logger) (*chat.Service, *imagerisk.Service) {
	sessionCfg := cfg.AI.SessionConfig()
	chatSvc := chat.NewService(func() *conversation.Controller {
		return conversation.New(b.sessions, sessionCfg,
			conversation.WithTimeout(cfg.Chat.Timeout),
			conversation.WithLogger(logger.With().Str("component", "conversation").Logger()),
		)
	})
	analyzer := imagerisk.NewService(b.evaluator,
		imagerisk.WithMaxBytes(cfg.Upload.MaxBytes),
		imagerisk.WithLogger(logger.With().Str("component", "imagerisk").Logger()),
	)
	return chatSvc, analyzer
}

// sweepSessions drops abandoned sessions until ctx is done.
func sweepSessions(ctx context.Context, svc *chat.Service, ttl time.Duration, logger zerolog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.Sweep(ttl); n > 0 {
				logger.Info().Int("removed", n).Int("active", svc.Len()).Msg("swept idle chat sessions")
			}
		}
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
