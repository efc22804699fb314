package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/config"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/handlers"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/middleware"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/service"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

// SessionKeyPurpose separates the session signing key from the redemption token key
const SessionKeyPurpose = "buzz session"

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	log        logr.Logger
	repo       repository.Repository
	sweeper    *service.Sweeper
	httpServer *http.Server
}

// NewServer opens the store and wires every service
func NewServer(cfg *config.Config, log logr.Logger) (*Server, error) {
	repo, err := repository.Open(cfg.DatabaseURI, log.WithName("repository"))
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	codec, err := token.NewCodec(cfg.SecretKey)
	if err != nil {
		repo.Close()
		return nil, err
	}
	sessionKey, err := token.DeriveKey(cfg.SecretKey, SessionKeyPurpose)
	if err != nil {
		repo.Close()
		return nil, err
	}

	deps := service.Deps{Repo: repo, Codec: codec, Log: log, Location: cfg.Location}
	sweeper, err := service.NewSweeper(deps, cfg.SweepSchedule)
	if err != nil {
		repo.Close()
		return nil, err
	}

	handler := NewHandler(deps, cfg.MinMileageUse, service.NewSalesClient(cfg.SalesSystemAddress, log))
	return &Server{
		cfg:     cfg,
		log:     log,
		repo:    repo,
		sweeper: sweeper,
		httpServer: &http.Server{
			Addr:              cfg.RunAddress,
			Handler:           NewRouter(handler, sessionKey, cfg.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewHandler builds the HTTP handler set over deps
func NewHandler(deps service.Deps, minMileageUse int64, sales *service.SalesClient) *handlers.Handler {
	ledger := service.NewLedger(deps, minMileageUse)
	return &handlers.Handler{
		Ledger:      ledger,
		Redeemer:    service.NewCoordinator(deps, ledger),
		Settlements: service.NewAggregator(deps),
		Referrals:   service.NewReferrals(deps, ledger),
		Coupons:     service.NewCoupons(deps),
		Sales:       sales,
		Log:         deps.Log.WithName("http"),
	}
}

// NewRouter mounts every route of h behind session authentication
func NewRouter(h *handlers.Handler, sessionKey []byte, origins []string) chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(sessionKey))

		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleUser))

			r.Post("/coupons/{id}/token", h.CouponToken)
			r.Post("/mileage/use-requests", h.CreateUseRequest)
			r.Get("/mileage/balance", h.GetBalance)
			r.Get("/mileage/history", h.GetHistory)
			r.Get("/referrals", h.GetReferrals)
			r.Post("/referrals/claim/mileage", h.ClaimReferralMileage)
			r.Post("/referrals/claim/discount", h.ClaimReferralDiscount)
		})

		r.Route("/business", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleBusiness))

			r.Post("/redeem", h.Redeem)
			r.Post("/settlements", h.RequestSettlement)
			r.Get("/settlements", h.ListSettlements)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleAdmin))

			r.Get("/settlements", h.ListSettlementsByStatus)
			r.Get("/settlements/{id}", h.GetSettlement)
			r.Post("/settlements/{id}/approve", h.ApproveSettlement)
			r.Post("/settlements/{id}/paid", h.MarkSettlementPaid)
			r.Post("/settlements/{id}/reject", h.RejectSettlement)
			r.Post("/coupon-templates", h.CreateCouponTemplate)
			r.Post("/coupons", h.IssueCoupon)
			r.Post("/mileage/earn", h.EarnMileage)
			r.Post("/referrals", h.RecordReferral)
		})
	})

	return r
}

// Run starts the sweeper and the HTTP server
func (s *Server) Run() error {
	metrics.InitMetrics()

	if err := s.sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	s.log.Info("starting server", "address", s.cfg.RunAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	s.sweeper.Stop()

	return s.repo.Close()
}
