// Package server exposes the extraction router over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/toricodesthings/medscan-service/internal/config"
	"github.com/toricodesthings/medscan-service/internal/extract"
)

const version = "1.0.0"

type Server struct {
	cfg    config.Config
	router *extract.Router
	log    *slog.Logger

	requestSem *semaphore.Weighted

	// Per-IP rate limiters
	limitersMu sync.Mutex
	limiters   *sync.Map

	metrics *serverMetrics
}

// New wires router into a Server and registers the metrics hook on it.
func New(cfg config.Config, router *extract.Router, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	max := cfg.MaxConcurrentRequests
	if max <= 0 {
		max = 1
	}
	s := &Server{
		cfg:        cfg,
		router:     router,
		log:        log,
		requestSem: semaphore.NewWeighted(max),
		limiters:   &sync.Map{},
		metrics:    newServerMetrics(),
	}
	router.SetSuccessHook(s.metrics.recordSuccess)
	return s
}

// Handler returns the routed, fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.withInternalAuth(s.handleMetrics))

	mux.HandleFunc("/extract",
		s.withInternalAuth(
			s.withRateLimit(
				withMethod("POST",
					s.withConcurrencyLimit(s.handleExtract)))))

	mux.HandleFunc("/extract/text",
		s.withInternalAuth(
			s.withRateLimit(
				withMethod("POST",
					s.withConcurrencyLimit(s.handleExtractText)))))

	return s.withLogging(s.withRecovery(s.withCORS(mux)))
}

// CleanupLoop periodically logs process stats and resets the per-IP rate
// limiters until ctx is done.
func (s *Server) CleanupLoop(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snap := s.metrics.snapshot()
		s.log.Info("stats",
			"active", snap.ActiveRequests,
			"total", snap.TotalRequests,
			"goroutines", runtime.NumGoroutine(),
			"mem_mb", m.Alloc/(1<<20),
		)

		s.limitersMu.Lock()
		s.limiters = &sync.Map{}
		s.limitersMu.Unlock()
	}
}
