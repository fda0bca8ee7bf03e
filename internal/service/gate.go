// gate.go — решение, требует ли операция одобрения чекера.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// GateService — проверка операции перед отправкой.
type GateService struct {
	core   CoreAPI
	logger *slog.Logger
}

// NewGateService создаёт сервис гейта.
func NewGateService(core CoreAPI, logger *slog.Logger) *GateService {
	return &GateService{
		core:   core,
		logger: logger.With(slog.String("component", "gate_service")),
	}
}

// Check перечитывает глобальный флаг и разрешения и решает, нужен ли чекер.
// Неизвестный код не требует одобрения.
func (s *GateService) Check(ctx context.Context, code string) (*model.GateDecision, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: не задан код операции", ErrInvalidRequest)
	}

	cfg, err := s.core.GetMakerCheckerConfig(ctx)
	if err != nil {
		return nil, wrapCore("чтение глобального флага maker-checker", err)
	}
	perms, err := s.core.ListPermissions(ctx, true)
	if err != nil {
		return nil, wrapCore("получение разрешений", err)
	}

	d := &model.GateDecision{Code: code, GlobalEnabled: cfg.Enabled}
	for _, p := range perms {
		if strings.EqualFold(p.Code, code) {
			d.PermissionSelected = p.Selected
			break
		}
	}
	d.RequiresApproval = d.GlobalEnabled && d.PermissionSelected

	gateChecksTotal.WithLabelValues(strconv.FormatBool(d.RequiresApproval)).Inc()
	s.logger.Debug("Проверка гейта",
		slog.String("code", code),
		slog.Bool("global_enabled", d.GlobalEnabled),
		slog.Bool("permission_selected", d.PermissionSelected),
	)
	return d, nil
}
