// global.go — глобальный переключатель maker-checker.
// Значение хранится в ядре и читается заново при каждом обращении.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// GlobalToggleService — чтение и переключение глобального флага.
type GlobalToggleService struct {
	core   CoreAPI
	logger *slog.Logger
}

// NewGlobalToggleService создаёт сервис глобального флага.
func NewGlobalToggleService(core CoreAPI, logger *slog.Logger) *GlobalToggleService {
	return &GlobalToggleService{
		core:   core,
		logger: logger.With(slog.String("component", "global_toggle_service")),
	}
}

// Get возвращает текущее состояние флага.
func (s *GlobalToggleService) Get(ctx context.Context) (*model.GlobalConfig, error) {
	cfg, err := s.core.GetMakerCheckerConfig(ctx)
	if err != nil {
		return nil, wrapCore("чтение глобального флага maker-checker", err)
	}
	return &model.GlobalConfig{Enabled: cfg.Enabled}, nil
}

// Set включает или выключает maker-checker для тенанта.
// Идентификатор конфигурации каждый раз читается из ядра.
func (s *GlobalToggleService) Set(ctx context.Context, enabled bool, changedBy string) (*model.GlobalConfig, error) {
	cfg, err := s.core.GetMakerCheckerConfig(ctx)
	if err != nil {
		return nil, wrapCore("чтение глобального флага maker-checker", err)
	}
	if err := s.core.UpdateConfiguration(ctx, cfg.ID, enabled); err != nil {
		return nil, wrapCore("обновление глобального флага maker-checker", err)
	}

	s.logger.Info("Глобальный флаг maker-checker изменён",
		slog.Bool("from", cfg.Enabled),
		slog.Bool("to", enabled),
		slog.String("changed_by", changedBy),
	)
	return &model.GlobalConfig{Enabled: enabled}, nil
}
