// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/solstad/vitrine/internal/config"
)

// HTTPService runs the API server as a supervised service. Serve blocks
// until the listener fails or the supervision context is cancelled, then
// drains in-flight requests within the configured shutdown timeout.
type HTTPService struct {
	cfg     config.ServerConfig
	handler http.Handler
	logger  zerolog.Logger
}

// NewHTTPService wraps an HTTP handler for supervision.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPService(cfg config.ServerConfig, handler http.Handler, logger zerolog.Logger) *HTTPService {
	return &HTTPService{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	server := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http shutdown incomplete, closing")
			_ = server.Close()
		}
		s.logger.Info().Msg("http server stopped")
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-service" }
