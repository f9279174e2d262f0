// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

// Package httpapi serves template conversion and example lookup over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/tpl2oas"
	"github.com/woozymasta/tpl2oas/internal/config"
)

const (
	// maxRequestBody limits decoded JSON request bodies.
	maxRequestBody = 1 << 20
	// shutdownTimeout bounds graceful shutdown after context cancellation.
	shutdownTimeout = 10 * time.Second
)

// convertMessage is returned by a successful POST /convert.
const convertMessage = "OpenAPI YAML generated successfully"

var (
	// ErrBadRequest marks malformed or incomplete requests.
	ErrBadRequest = errors.New("bad request")
	// ErrOutsideBaseDir is returned for file paths escaping the base directory.
	ErrOutsideBaseDir = errors.New("path outside base directory")
)

// Server exposes conversion endpoints.
type Server struct {
	cfg     *config.Config
	baseDir string
	logger  *slog.Logger
	mux     *http.ServeMux

	// documentMu serializes document read-modify-write within this process.
	documentMu sync.Mutex
}

// ConvertRequest is the POST /convert body.
type ConvertRequest struct {
	Path         string `json:"path"`
	Method       string `json:"method"`
	Tag          string `json:"tag"`
	Summary      string `json:"summary"`
	OperationID  string `json:"operation_id"`
	RootTemplate string `json:"root_template"`
	XMLFile      string `json:"xml_file"`
	Output       string `json:"output"`
}

// SampleRequest is the POST /sample-response body.
type SampleRequest struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Status string `json:"status"`
}

// messageResponse is a plain success body.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// New builds server for cfg. A nil logger uses slog.Default.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseDir, err := cfg.ResolvedBaseDir()
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	server := &Server{
		cfg:     cfg,
		baseDir: baseDir,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	server.mux.HandleFunc("POST /convert", server.handleConvert)
	server.mux.HandleFunc("GET /available-paths", server.handleAvailablePaths)
	server.mux.HandleFunc("POST /sample-response", server.handleSampleResponse)

	return server, nil
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.mux)
}

// ListenAndServe serves on cfg.Listen until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return slogcontext.NewCtx(context.Background(), s.logger)
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("http server listening", slog.String("addr", s.cfg.Listen), slog.String("baseDir", s.baseDir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// handleConvert compiles one template and stores it in the output document.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.Method) == "" || strings.TrimSpace(req.RootTemplate) == "" {
		s.writeError(w, r, fmt.Errorf("%w: path, method and root_template are required", ErrBadRequest))
		return
	}

	templatesPath, err := s.resolvePath(req.XMLFile, s.cfg.Templates)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outputPath, err := s.resolvePath(req.Output, s.cfg.Document)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	registry, err := tpl2oas.LoadRegistryFile(templatesPath)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	schema, err := tpl2oas.Compile(registry, req.RootTemplate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.documentMu.Lock()
	_, err = tpl2oas.AppendOperationFile(outputPath, tpl2oas.Operation{
		Path:        req.Path,
		Method:      req.Method,
		Tag:         req.Tag,
		Summary:     req.Summary,
		OperationID: req.OperationID,
		Schema:      schema,
	})
	s.documentMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	slogcontext.FromCtx(r.Context()).Info("operation converted",
		slog.String("template", req.RootTemplate),
		slog.String("operation", tpl2oas.MethodLabel(req.Method)+" "+req.Path),
		slog.String("document", outputPath),
	)

	writeJSON(w, http.StatusOK, messageResponse{Message: convertMessage})
}

// handleAvailablePaths lists operations of the configured document.
func (s *Server) handleAvailablePaths(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loadDocument()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc.Operations())
}

// handleSampleResponse generates an example for a documented response.
func (s *Server) handleSampleResponse(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.Method) == "" {
		s.writeError(w, r, fmt.Errorf("%w: path and method are required", ErrBadRequest))
		return
	}

	status := req.Status
	if strings.TrimSpace(status) == "" {
		status = s.cfg.Status
	}

	doc, err := s.loadDocument()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	value, err := tpl2oas.ResponseExample(doc, req.Path, req.Method, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, value)
}

// loadDocument reads the configured document under the document lock.
func (s *Server) loadDocument() (*tpl2oas.Document, error) {
	s.documentMu.Lock()
	defer s.documentMu.Unlock()

	return tpl2oas.LoadDocument(s.cfg.Document)
}

// resolvePath returns absolute path of requested file, which must stay inside
// base directory; relative requests are joined to it. Blank requests use the
// configured fallback as is.
func (s *Server) resolvePath(requested, fallback string) (string, error) {
	path := strings.TrimSpace(requested)
	if path == "" {
		absolute, err := filepath.Abs(fallback)
		if err != nil {
			return "", fmt.Errorf("resolve configured path %q: %w", fallback, err)
		}

		return absolute, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	rel, err := filepath.Rel(s.baseDir, absolute)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBaseDir, absolute)
	}

	return absolute, nil
}

// writeError logs err and writes it with mapped status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	logger := slogcontext.FromCtx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		logger.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tpl2oas.ErrSchemaNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, tpl2oas.ErrUnknownTemplate),
		errors.Is(err, tpl2oas.ErrCyclicTemplate),
		errors.Is(err, tpl2oas.ErrStructural):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrOutsideBaseDir):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, tpl2oas.ErrDecodeTemplates),
		errors.Is(err, tpl2oas.ErrDecodeDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody decodes a bounded JSON request body into target.
func decodeJSONBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: decode json body: %w", ErrBadRequest, err)
	}

	return nil
}

// writeJSON writes value as JSON with status.
func writeJSON(w http.ResponseWriter, status int, value any) {
	data, err := tpl2oas.MarshalExampleJSON(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
