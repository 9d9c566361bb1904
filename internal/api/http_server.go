package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/domain"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the rental lifecycle over HTTP. The caller is
// identified by the X-Actor-Email header; authorization itself happens
// in the service layer.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     domain.RentalService
	limiter domain.RateLimiter
	logger  *zerolog.Logger
	server  *http.Server
}

func NewHTTPServer(cfg config.APIConfig, svc domain.RentalService, limiter domain.RateLimiter, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, svc: svc, limiter: limiter, logger: logger}

	mux.HandleFunc("/api/v1/rentals", srv.handleRentals)
	mux.HandleFunc("/api/v1/rentals/client", srv.handleListForClient)
	mux.HandleFunc("/api/v1/rentals/owner", srv.handleListForOwner)
	mux.HandleFunc("/api/v1/rentals/owner/pending", srv.handleListPendingForOwner)
	mux.HandleFunc("/api/v1/rentals/", srv.handleRentalByID)
	mux.HandleFunc("/api/v1/admin/rentals", srv.handleAdminList)
	mux.HandleFunc("/api/v1/admin/rentals/activate-due", srv.handleActivateDue)
	mux.HandleFunc("/api/v1/admin/rentals/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(srv.rateLimitMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRentalByID routes /api/v1/rentals/{id} and its lifecycle
// actions /cancel, /respond, /confirm-return.
func (s *HTTPServer) handleRentalByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/rentals/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" {
		writeNotFound(w)
		return
	}

	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid rental id")
		return
	}

	switch action {
	case "":
		s.handleGetRental(w, r, id)
	case "cancel":
		s.handleCancel(w, r, id)
	case "respond":
		s.handleRespond(w, r, id)
	case "confirm-return":
		s.handleConfirmReturn(w, r, id)
	default:
		writeNotFound(w)
	}
}

// actorEmail extracts the caller identity header.
func actorEmail(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Actor-Email"))
}
