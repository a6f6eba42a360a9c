package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/bingo-backend/internal/config"
	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
	"github.com/rocketscienceinc/bingo-backend/internal/repository/storage"
	"github.com/rocketscienceinc/bingo-backend/internal/usecase"
	"github.com/rocketscienceinc/bingo-backend/transport/rest"
	"github.com/rocketscienceinc/bingo-backend/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	results, closeResults, err := newResultRepository(ctx, log, conf.Redis)
	if err != nil {
		return err
	}
	defer closeResults()

	appMetrics := metrics.NewDefault()

	rooms := repository.NewRoomRegistry(func() (string, error) {
		return pkg.GenerateRoomID(conf.RoomIDLength)
	})

	hub := websocket.NewHub(appMetrics)
	session := usecase.NewSession(logger, rooms, results, appMetrics, hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, results, appMetrics.Handler(), conf.CORS.AllowedOrigins)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, conf.Websocket, conf.CORS.AllowedOrigins, hub, session)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newResultRepository connects to redis when enabled; otherwise results are discarded.
func newResultRepository(ctx context.Context, log *slog.Logger, conf config.Redis) (repository.ResultRepository, func(), error) {
	if !conf.Enabled {
		log.Info("Redis disabled, game results will not be kept")
		return repository.NewNopResultRepository(), func() {}, nil
	}

	client, err := storage.NewRedis(ctx, conf.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewResultRepository(client, conf.ResultsLimit), closeFn, nil
}
