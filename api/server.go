package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lottery/instruction"
	"lottery/metrics"
	"lottery/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP front of the settlement program
type Server struct {
	router      *chi.Mux
	processor   *instruction.Processor
	settlements service.SettlementService
	srv         *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, processor *instruction.Processor, settlements service.SettlementService) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		processor:   processor,
		settlements: settlements,
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(requestLogger)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/instructions", s.handleProcessInstruction)
		r.Get("/results/{address}", s.handleGetResult)
		r.Get("/settlements/{address}", s.handleGetSettlement)
		r.Get("/lotteries/{id}/settlements", s.handleGetLotterySettlements)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.WithFields(log.Fields{
		"addr":      s.srv.Addr,
		"programID": s.processor.ProgramID().String(),
	}).Info("HTTP server listening")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}
