package service

import (
	"context"
	"fmt"

	"github.com/orcainteriores/orca-api/internal/port"

	"go.uber.org/zap"
)

// ============================================================
// Dev Tools
// ============================================================

// DevService exposes maintenance operations behind /v1/dev routes.
// Only mounted when DEV_MODE is enabled.
type DevService struct {
	store  port.Store
	logger *zap.Logger
}

// NewDevService creates the dev tools service.
func NewDevService(store port.Store, logger *zap.Logger) *DevService {
	return &DevService{store: store, logger: logger}
}

// ResetMonthlyCounters zeroes every user's monthly quote counter.
// In production this runs on the 1st of each month; here it is an
// explicit endpoint so billing cycles can be simulated.
func (s *DevService) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	affected, err := s.store.ResetMonthlyCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset monthly counters: %w", err)
	}

	s.logger.Info("DEV: monthly quote counters reset", zap.Int64("users", affected))
	return affected, nil
}
