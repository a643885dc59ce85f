// Package server wires every component and runs the HTTP surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/cryptodesk/backend/internal/api/http"
	"github.com/cryptodesk/backend/internal/api/middleware"
	"github.com/cryptodesk/backend/internal/api/ws"
	"github.com/cryptodesk/backend/internal/domain/assets"
	"github.com/cryptodesk/backend/internal/domain/desktop"
	"github.com/cryptodesk/backend/internal/domain/layout"
	"github.com/cryptodesk/backend/internal/domain/market"
	"github.com/cryptodesk/backend/internal/domain/notify"
	"github.com/cryptodesk/backend/internal/domain/session"
	"github.com/cryptodesk/backend/internal/domain/transfer"
	"github.com/cryptodesk/backend/internal/domain/wallet"
	"github.com/cryptodesk/backend/internal/domain/window"
	"github.com/cryptodesk/backend/internal/infrastructure/config"
	"github.com/cryptodesk/backend/internal/infrastructure/monitoring"
	"github.com/cryptodesk/backend/internal/shared/types"
)

// Server is the assembled terminal backend.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	http   *http.Server

	queue *notify.Queue
	feed  *market.Feed

	cancel context.CancelFunc
}

// New builds the full component graph from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := monitoring.New()
	queue := notify.New()

	// Layout persistence: file-backed unless running ephemeral.
	var kv layout.KV
	if cfg.Storage.Ephemeral {
		kv = layout.NewMemoryKV()
	} else {
		fileKV, err := layout.NewFileKV(filepath.Join(cfg.Storage.Dir, "layouts"))
		if err != nil {
			return nil, fmt.Errorf("failed to open layout storage: %w", err)
		}
		kv = fileKV
	}
	store := layout.NewStore(kv, logger).WithReporter(queue)
	windows := window.NewManager(store)

	table, err := loadAssets(cfg)
	if err != nil {
		return nil, err
	}

	bridge := wallet.NewDisconnected()
	desk := desktop.NewManager(windows, table, bridge, queue, logger)
	transfers := transfer.NewOrchestrator(table, bridge, bridge, queue, logger)

	client := market.NewClient(cfg.Market.BaseURL, cfg.Market.Currency)
	fetcher := &meteredFetcher{inner: client, metrics: metrics}
	feed := market.NewFeed(fetcher, queue, logger).
		WithInterval(cfg.Market.Interval).
		WithTopN(cfg.Market.TopN)

	sessions, err := session.NewManager(desk, filepath.Join(cfg.Storage.Dir, "sessions"), logger)
	if err != nil {
		return nil, err
	}

	router := buildRouter(cfg, metrics)
	apihttp.New(desk, table, queue, feed, transfers, sessions, metrics, logger).Register(router)
	ws.New(desk, queue, feed, metrics, logger).Register(router)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		cfg:    cfg,
		logger: logger,
		queue:  queue,
		feed:   feed,
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // websocket and export endpoints stream
			IdleTimeout:  90 * time.Second,
		},
	}, nil
}

// Run starts the market feed and serves HTTP until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.feed.Start(ctx)
	s.logger.Info("server listening", zap.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the feed, the queue, and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	s.feed.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Close()

	return s.http.Shutdown(ctx)
}

// meteredFetcher counts feed polls and failures.
type meteredFetcher struct {
	inner   market.Fetcher
	metrics *monitoring.Metrics
}

func (f *meteredFetcher) TopAssets(ctx context.Context, limit int) ([]types.MarketAsset, error) {
	f.metrics.FeedPolls.Inc()
	rows, err := f.inner.TopAssets(ctx, limit)
	if err != nil {
		f.metrics.FeedErrors.Inc()
	}
	return rows, err
}

func loadAssets(cfg *config.Config) (*assets.Table, error) {
	if cfg.Assets.Path == "" {
		return assets.Default(), nil
	}
	table, err := assets.LoadFile(cfg.Assets.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset table: %w", err)
	}
	return table, nil
}

func buildRouter(cfg *config.Config, metrics *monitoring.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(metrics.Middleware())
	return router
}
