package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/weiawesome/signal-relay/internal/config"
	"github.com/weiawesome/signal-relay/internal/handler"
	"github.com/weiawesome/signal-relay/internal/hub"
	"github.com/weiawesome/signal-relay/internal/registry"
	"github.com/weiawesome/signal-relay/internal/service"
	pkglog "github.com/weiawesome/signal-relay/pkg/log"
	"github.com/weiawesome/signal-relay/pkg/pubsub"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var (
	flagConfig string
	flagPort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signaling relay",
	Long: `Start the HTTP server that accepts WebSocket connections on /ws, serves the
room API and ICE server list, and serves static files for every other path.

Examples:
  signal-relay serve
  signal-relay serve --port 8080
  signal-relay serve --config /etc/signal-relay/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{
			ConfigFile: flagConfig,
			Port:       flagPort,
		})
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Path to a config file (default: ./config/config.yaml if present)")
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Port to listen on (overrides config and PORT)")
}

func serve(ctx context.Context, cfg *config.Config) error {
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "signal-relay"})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting signal-relay")

	// Lifecycle events are optional; the relay runs without a broker.
	var publisher pubsub.Publisher
	ps, err := pubsub.NewPubSub(cfg.PubSub)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to initialize pubsub, room events disabled")
	} else {
		defer ps.Close()
		publisher = ps
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("pubsub initialized")
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	relaySvc := service.NewRelayService(wsHub, registry.New(), publisher)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(logger, wsHub, relaySvc, cfg)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("static_dir", cfg.Static.Dir).Msg("signal-relay listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return relaySvc.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down signal-relay")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Shutdown does not track hijacked connections, so close them here.
		wsHub.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("signal-relay stopped")
	return nil
}
