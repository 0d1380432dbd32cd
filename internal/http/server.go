package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"conti/internal/cache"
	"conti/internal/log"
	"conti/internal/middleware/ratelimit"
	"conti/internal/middleware/security"
	"conti/internal/middleware/trace"
	"conti/internal/receipt"
	"conti/internal/services"
)

// Pinger reports whether the store can serve queries.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the API. Scanner and CacheManager may
// be nil.
type Deps struct {
	Expenses *services.ExpenseService
	Stats    *services.StatsService
	Scanner  *receipt.Scanner
	Store    Pinger
	Clock    services.Clock
	Logger   *log.Logger

	CacheManager       *cache.Manager
	RateLimitPerMinute int
	// TrustedProxies are extra CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	expenses *services.ExpenseService
	stats    *services.StatsService
	scanner  *receipt.Scanner
	store    Pinger
	clock    services.Clock
	logger   *log.Logger

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	scanner := deps.Scanner
	if scanner == nil {
		scanner = receipt.NewScanner(nil)
	}

	s := &Server{
		expenses:     deps.Expenses,
		stats:        deps.Stats,
		scanner:      scanner,
		store:        deps.Store,
		clock:        deps.Clock,
		logger:       logger,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:     security.NewDetector(),
		cacheManager: deps.CacheManager,
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/export", s.handleExportExpenses)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/categories", handleCategories)
	mux.HandleFunc("GET /api/persons", handlePersons)
	mux.HandleFunc("POST /api/receipts/scan", s.handleScanReceipt)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// middleware wraps h, outermost first: security headers, probe detection,
// request tracing, request-scoped logger, rate limit on writes.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ClientIP, ratelimit.WritesOnly, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(h)
	withLogger := log.Middleware(s.logger, trace.GetRequestID)(limited)
	traced := s.tracer.Middleware(withLogger)
	detected := s.detector.Middleware(traced)
	return security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(detected)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			ServiceUnavailableError("Store unavailable").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
