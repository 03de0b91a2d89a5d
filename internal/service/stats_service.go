package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/persistence"
	"github.com/spec-kit/transfer-service/internal/repository"
	apperrors "github.com/spec-kit/transfer-service/pkg/util"
)

const overviewCacheKey = "stats:overview"

// StatsService serves KPI snapshots, per-branch statistics and advisory
// alerts over the full (not role-filtered) transfer table.
type StatsService struct {
	transfers repository.TransferRepository
	cache     *persistence.Redis
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatsService constructs the service. cache may be nil, in which case
// every overview is computed fresh.
func NewStatsService(transfers repository.TransferRepository, cache *persistence.Redis, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	return &StatsService{
		transfers: transfers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Overview returns the KPI snapshot, served from the cache when fresh.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	if payload, ok := s.cache.CacheGet(ctx, overviewCacheKey); ok {
		var cached Overview
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding unreadable overview cache entry")
	}

	transfers, err := s.transfers.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	overview := computeOverview(transfers)

	if payload, err := json.Marshal(overview); err == nil {
		s.cache.CacheSet(ctx, overviewCacheKey, payload, s.cacheTTL)
	}
	return &overview, nil
}

// BranchCounts returns per-branch transfer counts in descending order.
func (s *StatsService) BranchCounts(ctx context.Context) ([]BranchCount, error) {
	transfers, err := s.transfers.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return computeBranchCounts(transfers), nil
}

// Alerts returns the advisory alert strings for supervisory roles. Other
// roles are rejected. Alerts are always recomputed, never cached.
func (s *StatsService) Alerts(ctx context.Context, account *domain.Account) ([]string, error) {
	if account == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}
	switch account.Role {
	case domain.RoleSupervisor, domain.RoleManager, domain.RoleOwner:
	default:
		return nil, apperrors.NewForbidden("supervisor, manager or owner role required")
	}

	transfers, err := s.transfers.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return computeAlerts(transfers, s.now()), nil
}
