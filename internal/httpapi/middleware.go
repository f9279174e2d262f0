// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	slogcontext "github.com/veqryn/slog-context"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging stores a request-scoped logger in the request context and logs completion.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		logger := s.logger.With(
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(slogcontext.NewCtx(r.Context(), logger)))

		logger.Debug("request served",
			slog.Int("status", recorder.status),
			slog.Duration("duration", time.Since(started)),
		)
	})
}
