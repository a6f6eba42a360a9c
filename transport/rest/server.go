package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type resultReader interface {
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
	Recent(ctx context.Context, limit int) ([]entity.GameResult, error)
}

type Server struct {
	logger  *slog.Logger
	results resultReader
	metrics http.Handler
	cors    *cors.Cors
}

func New(logger *slog.Logger, results resultReader, metrics http.Handler, allowedOrigins []string) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		results: results,
		metrics: metrics,
		cors: cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}),
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.pingHandler)
	mux.Handle("GET /metrics", that.metrics)
	mux.HandleFunc("GET /api/leaderboard", that.leaderboardHandler)
	mux.HandleFunc("GET /api/results", that.resultsHandler)

	return that.cors.Handler(mux)
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
