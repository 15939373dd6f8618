package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/compranal/supplier_portal/internal/admin"
	"github.com/compranal/supplier_portal/internal/auth"
	"github.com/compranal/supplier_portal/internal/config"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/logging"
	"github.com/compranal/supplier_portal/internal/metrics"
	"github.com/compranal/supplier_portal/internal/middleware"
	"github.com/compranal/supplier_portal/internal/npo"
	"github.com/compranal/supplier_portal/internal/supplier"
)

// Server holds the portal's HTTP surface and its collaborators.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	sessions *supplier.Manager
	adminSvc *admin.Service
	authSvc  *auth.Service
	npoSvc   *npo.Service
	started  time.Time
}

// NewServer assembles the portal server.
func NewServer(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics,
	sessions *supplier.Manager, adminSvc *admin.Service, authSvc *auth.Service, npoSvc *npo.Service) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sessions: sessions,
		adminSvc: adminSvc,
		authSvc:  authSvc,
		npoSvc:   npoSvc,
		started:  time.Now(),
	}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Tracing(s.logger))
	r.Use(middleware.Metrics("portal", s.metrics))
	r.Use(middleware.CORS(s.cfg.Server.AllowedOrigins))
	if s.cfg.Server.EnableRateLimiter {
		limiter := middleware.NewRateLimiter(s.cfg.Server.RateLimitPerSec, s.cfg.Server.RateLimitBurst, s.logger)
		limiter.StartCleanup(time.Minute, 10*time.Minute, nil)
		r.Use(limiter.Middleware())
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Supplier routes are gated by the opaque token in the path, not by a
	// bearer.
	portal := api.PathPrefix("/portal/{token}").Subrouter()
	portal.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)
	portal.HandleFunc("/orders", s.handleOrders).Methods(http.MethodGet)
	portal.HandleFunc("/orders/{orderId}/items", s.handleOrderItems).Methods(http.MethodGet)
	portal.HandleFunc("/message-types", s.handleMessageTypes).Methods(http.MethodGet)
	portal.HandleFunc("/items/{itemId}/comments", s.handleItemComments).Methods(http.MethodGet)
	portal.HandleFunc("/comments", s.handleSubmitComment).Methods(http.MethodPost)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	adminAuth := middleware.NewAdminAuth(s.cfg.Auth.JWTSecret, s.logger)

	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(adminAuth.Middleware())
	adminRoutes.HandleFunc("/message-types", s.handleAdminMessageTypes).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/message-types", s.handleAdminCreateMessageType).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/message-types/{id}", s.handleAdminUpdateMessageType).Methods(http.MethodPatch)
	adminRoutes.HandleFunc("/users-allowed", s.handleAdminUsersAllowed).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/users-allowed", s.handleAdminGiveAccess).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/users-allowed/{userId}", s.handleAdminUpdateAccess).Methods(http.MethodPatch)

	npoRoutes := api.PathPrefix("/npo").Subrouter()
	npoRoutes.Use(adminAuth.Middleware())
	npoRoutes.HandleFunc("/orders", s.handleNpoOrders).Methods(http.MethodGet)
	npoRoutes.HandleFunc("/suppliers", s.handleNpoSuppliers).Methods(http.MethodGet)
	npoRoutes.HandleFunc("/supplier-messages", s.handleNpoSupplierMessages).Methods(http.MethodGet)
	npoRoutes.HandleFunc("/email-logs", s.handleNpoEmailLogs).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"sessions":       s.sessions.Len(),
	})
}
