package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/app"
	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/config"
	"github.com/vitals-dev/vitals/internal/logging"
	"github.com/vitals-dev/vitals/service"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	serveHost       string
	servePort       int
	serveConfigPath string
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [path...]",
		Short: "Serve scan results and healing controls over HTTP",
		Long: `Start an HTTP API over the scan pipeline and the healing controller.

The server scans the given paths (default: current directory) on demand
and keeps the latest result available. Scan triggers are rate limited
and concurrent triggers share a single scan.

Endpoints:
  GET  /healthz
  GET  /api/v1/result
  GET  /api/v1/issues?min_severity=high
  POST /api/v1/scan
  GET  /api/v1/heal/stats
  POST /api/v1/heal/candidates/{id}/apply
  POST /api/v1/heal/toggle
  POST /api/v1/heal/threshold

Examples:
  vitals serve src/
  vitals serve --port 9090 .
  curl -X POST localhost:8080/api/v1/scan`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveHost, "host", "",
		"Listen address (default from config)")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Listen port (default from config)")
	cmd.Flags().StringVarP(&serveConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

// apiServer holds the long-lived pipeline. The scan service keeps the
// latest result and stage across requests; handlers only read or
// trigger work.
type apiServer struct {
	scanService *service.ScanServiceImpl
	scanUC      *app.ScanUseCase
	healService *service.HealServiceImpl
	baseRequest domain.ScanRequest
	limiter     *rate.Limiter
	group       singleflight.Group
	logger      *logging.Logger
}

func runServe(cmd *cobra.Command, args []string) error {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	cfg, err := config.LoadConfigWithTarget(serveConfigPath, roots[0])
	if err != nil {
		return err
	}

	host := cfg.Serve.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Serve.Port
	if servePort != 0 {
		port = servePort
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	// Configured pacing stays on so stage transitions are observable
	// through GET /api/v1/result while a scan runs
	provider := app.NewModuleProvider()
	scanService := service.NewScanService(provider).
		WithStageTimer(service.NewStageTimer(
			time.Duration(cfg.Scan.ModulePauseMs)*time.Millisecond,
			time.Duration(cfg.Scan.TickPauseMs)*time.Millisecond,
		)).
		WithLogger(logger)

	fileHelper := app.NewFileHelper().WithGitignore(cfg.Analysis.RespectGitignore)
	scanUC, err := app.NewScanUseCaseBuilder().
		WithProvider(provider).
		WithService(scanService).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return err
	}

	store, err := openCandidateStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).
		WithStore(store).
		WithLogger(logger)

	perMinute := cfg.Serve.ScanRequestsPerMinute
	if perMinute <= 0 {
		perMinute = config.DefaultScanRequestsPerMinute
	}

	srv := &apiServer{
		scanService: scanService,
		scanUC:      scanUC,
		healService: healService,
		baseRequest: domain.ScanRequest{
			Paths:                roots,
			Recursive:            cfg.Analysis.Recursive,
			NoProgress:           true,
			ContentPreviewLength: cfg.Scan.ContentPreviewLength,
			IncludePatterns:      cfg.Analysis.IncludePatterns,
			ExcludePatterns:      cfg.Analysis.ExcludePatterns,
			Thresholds:           cfg.Detection.Thresholds(),
		},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:  logger,
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("vitals API listening on http://%s\n", addr)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	select {
	case serveErr := <-errCh:
		return serveErr
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Serve.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func (s *apiServer) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/result", s.handleResult)
		r.Get("/issues", s.handleIssues)
		r.Post("/scan", s.handleScan)
		r.Get("/heal/stats", s.handleHealStats)
		r.Post("/heal/candidates/{id}/apply", s.handleHealApply)
		r.Post("/heal/toggle", s.handleHealToggle)
		r.Post("/heal/threshold", s.handleHealThreshold)
	})

	return r
}

// accessLog writes one JSONL event per request
func (s *apiServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info(logging.CategoryServer, "http_request",
			r.Method+" "+r.URL.Path, map[string]any{
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			})
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stage":  s.scanService.Stage(),
		"result": s.scanService.LatestResult(),
	})
}

func (s *apiServer) handleIssues(w http.ResponseWriter, r *http.Request) {
	floor := domain.Severity(r.URL.Query().Get("min_severity"))
	if floor != "" && floor.Rank() < 0 {
		writeError(w, http.StatusBadRequest,
			domain.NewInvalidInputError(fmt.Sprintf("unknown severity floor: %s", floor), nil))
		return
	}

	result := s.scanService.LatestResult()
	issues := []domain.Issue{}
	if result != nil {
		for _, issue := range result.Issues {
			if issue.Severity.AtLeast(floor) {
				issues = append(issues, issue)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests,
			domain.NewInvalidInputError("scan rate limit exceeded", nil))
		return
	}

	// Concurrent triggers share one scan. The scan runs on its own
	// context so a disconnecting client does not abort it for the rest.
	v, err, _ := s.group.Do("scan", func() (interface{}, error) {
		req := s.baseRequest
		return s.scanUC.Execute(context.Background(), req)
	})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	writeJSON(w, http.StatusOK, v.(*domain.ScanResponse))
}

func (s *apiServer) handleHealStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.healService.FetchStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleHealApply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if decoded, decodeErr := url.PathUnescape(id); decodeErr == nil {
		id = decoded
	}

	candidate, err := s.healService.ApplyFix(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if domain.IsCode(err, domain.ErrCodeInvalidInput) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

func (s *apiServer) handleHealToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.healService.ToggleEnabled()})
}

func (s *apiServer) handleHealThreshold(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest,
			domain.NewInvalidInputError("invalid request body", err))
		return
	}

	if err := s.healService.SetAutoApplyThreshold(body.Value); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"autoApplyThreshold": body.Value})
}

func statusForError(err error) int {
	switch {
	case domain.IsCode(err, domain.ErrCodeInvalidInput):
		return http.StatusBadRequest
	case domain.IsCode(err, domain.ErrCodeInvalidConfig):
		return http.StatusBadRequest
	case domain.IsCode(err, domain.ErrCodeFileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := "INTERNAL"
	var domainErr domain.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}
