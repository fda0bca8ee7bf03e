// Пакет server — HTTP-сервер maker-checker BFF с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/handlers"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/openapi"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/config"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/rbac"
)

// Server — HTTP-сервер maker-checker BFF.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// RouterDeps — зависимости маршрутизатора.
type RouterDeps struct {
	Handler *handlers.APIHandler
	JWTAuth *middleware.JWTAuth
	OpenAPI *openapi.Document
	// TenantHeader и DefaultTenant — см. middleware.Tenant.
	TenantHeader  string
	DefaultTenant string
	CORSOrigins   []string
	Logger        *slog.Logger
}

// NewRouter собирает маршруты и middleware.
// Health, metrics и OpenAPI-документ публичны, всё остальное под /api/v1
// требует JWT, одну из ролей BFF и заголовок тенанта.
func NewRouter(d RouterDeps) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader, d.TenantHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	h := d.Handler

	// Health и metrics проверяются Kubernetes напрямую, без API Gateway.
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)
	router.Get("/api/v1/openapi.json", d.OpenAPI.ServeSpec)

	router.Group(func(r chi.Router) {
		r.Use(d.JWTAuth.Middleware())
		r.Use(middleware.RequireRole(rbac.RoleMaker, rbac.RoleChecker, rbac.RoleAdmin))
		r.Use(middleware.Tenant(d.TenantHeader, d.DefaultTenant))
		r.Use(d.OpenAPI.ValidationMiddleware())

		adminOnly := middleware.RequireRole(rbac.RoleAdmin)
		checkerOrAdmin := middleware.RequireRole(rbac.RoleChecker, rbac.RoleAdmin)

		r.Get("/api/v1/maker-checker/global", h.GetGlobal)
		r.With(adminOnly).Put("/api/v1/maker-checker/global", h.SetGlobal)
		r.Get("/api/v1/maker-checker/gate", h.CheckGate)

		r.Get("/api/v1/permissions", h.ListPermissions)
		r.With(adminOnly).Put("/api/v1/permissions", h.UpdatePermissions)

		r.Get("/api/v1/maker-checker/inbox", h.GetInbox)
		r.With(checkerOrAdmin).Post("/api/v1/maker-checker/inbox", h.ResolveEntry)
		r.With(adminOnly).Delete("/api/v1/maker-checker/inbox", h.DeleteEntry)

		r.Get("/api/v1/maker-checker/super-checkers", h.ListSuperCheckers)
		r.With(adminOnly).Put("/api/v1/maker-checker/super-checkers", h.SetSuperChecker)
	})

	return router
}

// New создаёт HTTP-сервер с готовым маршрутизатором.
func New(cfg *config.Config, logger *slog.Logger, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
