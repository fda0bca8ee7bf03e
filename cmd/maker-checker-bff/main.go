// Точка входа maker-checker BFF — сервиса двойного контроля операций ядра.
// Загружает конфигурацию, создаёт клиент ядра с circuit breaker,
// сервисный слой и API handlers, JWT middleware, readiness checkers,
// мониторинг зависимостей (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/handlers"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/openapi"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/config"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/rbac"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/server"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Maker-checker BFF запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("core_url", cfg.CoreURL),
	)

	if os.Getenv("MCB_DEPHEALTH_GROUP") == "" {
		logger.Warn("MCB_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}
	if cfg.CoreInsecureSkipVerify {
		logger.Warn("MCB_CORE_INSECURE_SKIP_VERIFY=true, не используйте на продуктиве")
	}

	// 3. Клиент REST API ядра
	coreClient, err := core.New(core.Options{
		BaseURL:            cfg.CoreURL,
		Timeout:            cfg.CoreTimeout,
		CACertPath:         cfg.CoreCACertPath,
		InsecureSkipVerify: cfg.CoreInsecureSkipVerify,
		TenantHeader:       cfg.TenantHeader,
		Breaker: core.BreakerSettings{
			FailureRatio: cfg.BreakerFailureRatio,
			MinRequests:  cfg.BreakerMinRequests,
			OpenTimeout:  cfg.BreakerOpenTimeout,
		},
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента ядра", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Services
	actors := service.NewActorResolver(coreClient)
	services := handlers.Services{
		Global:        service.NewGlobalToggleService(coreClient, logger),
		Permissions:   service.NewPermissionService(coreClient, logger),
		Inbox:         service.NewInboxService(coreClient, actors, logger),
		Approval:      service.NewApprovalService(coreClient, actors, logger),
		SuperCheckers: service.NewSuperCheckerService(coreClient, logger),
		Gate:          service.NewGateService(coreClient, logger),
	}

	// 5. Readiness checkers (ядро + IdP)
	coreChecker, err := coreClient.NewReadinessChecker(cfg.CoreHealthPath, cfg.ReadinessTimeout)
	if err != nil {
		logger.Error("Ошибка создания readiness checker ядра", slog.String("error", err.Error()))
		os.Exit(1)
	}
	idpChecker, err := middleware.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.JWTCACertPath, cfg.ReadinessTimeout)
	if err != nil {
		logger.Error("Ошибка создания readiness checker IdP", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(config.ServiceName, coreChecker, idpChecker)

	// 6. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, services, logger)

	// 7. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.JWTCACertPath,
		cfg.JWTIssuer,
		rbac.GroupMapping{
			AdminGroups:   cfg.RoleAdminGroups,
			CheckerGroups: cfg.RoleCheckerGroups,
			MakerGroups:   cfg.RoleMakerGroups,
		},
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 8. OpenAPI контракт и валидатор запросов
	doc, err := openapi.Load(logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. topologymetrics — мониторинг зависимостей (ядро + IdP)
	ctx := context.Background()
	var dephealthSvc *service.DephealthService
	coreHealthURL, err := core.HealthURL(cfg.CoreURL, cfg.CoreHealthPath)
	if err == nil {
		dephealthSvc, err = service.NewDephealthService(service.DephealthConfig{
			ServiceID:     config.ServiceName,
			Group:         cfg.DephealthGroup,
			CoreHealthURL: coreHealthURL,
			JWKSURL:       cfg.JWTJWKSURL,
			CheckInterval: cfg.DephealthCheckInterval,
			TLSSkipVerify: cfg.CoreInsecureSkipVerify,
		}, logger)
	}
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		healthHandler.SetDependencyReporter(dephealthSvc)
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Создание и запуск HTTP-сервера
	router := server.NewRouter(server.RouterDeps{
		Handler:       apiHandler,
		JWTAuth:       jwtAuth,
		OpenAPI:       doc,
		TenantHeader:  cfg.TenantHeader,
		DefaultTenant: cfg.DefaultTenant,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})
	srv := server.New(cfg, logger, router)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Maker-checker BFF остановлен")
}
