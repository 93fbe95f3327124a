package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"resumerag/internal/domain"
)

// Service is the resume pipeline the API exposes.
type Service interface {
	Ingest(ctx context.Context, docName, rawText string) ([]string, error)
	ListDocuments(ctx context.Context) ([]string, error)
	DeleteDocument(ctx context.Context, docName string) (int, error)
	Reset(ctx context.Context) error
	Answer(ctx context.Context, question string, history ...domain.Turn) (string, error)
	Screen(ctx context.Context, jobDesc string, docNames []string) ([]domain.ScreeningResult, error)
	Compare(ctx context.Context, jobDesc string, docNames []string) (string, error)
}

type RouterConfig struct {
	Service Service
	Logger  *slog.Logger
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

const maxBodyBytes int64 = 5 * 1024 * 1024

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{svc: cfg.Service, logger: logger}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.listDocuments)
		r.Post("/", h.ingest)
		r.Delete("/", h.reset)
		r.Delete("/{name}", h.deleteDocument)
	})

	r.Post("/answer", h.answer)
	r.Post("/screen", h.screen)
	r.Post("/compare", h.compare)

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	return r
}

// Serve runs handler on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
