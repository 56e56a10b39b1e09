package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

const policyCacheKey = "settings:sales_policy"

// Service caches the sales policy in Redis in front of the settings row.
// Cache and store failures degrade to the default policy so quotation
// creation never hard-fails on a missing settings document.
type Service struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Policy returns the effective sales policy.
func (s *Service) Policy(ctx context.Context) pricing.SalesPolicy {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, policyCacheKey).Bytes()
		if err == nil {
			var policy pricing.SalesPolicy
			if jsonErr := json.Unmarshal(raw, &policy); jsonErr == nil {
				return policy
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("settings cache read", slog.Any("error", err))
		}
	}

	policy, err := s.repo.SalesPolicy(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("settings load", slog.Any("error", err))
		}
		return pricing.DefaultPolicy()
	}
	if policy.MaxDiscountPercentWithoutApproval <= 0 {
		policy.MaxDiscountPercentWithoutApproval = pricing.DefaultMaxDiscountPercent
	}

	if s.cache != nil {
		if raw, err := json.Marshal(policy); err == nil {
			if err := s.cache.Set(ctx, policyCacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("settings cache write", slog.Any("error", err))
			}
		}
	}
	return policy
}

// Invalidate drops the cached policy after a back-office update.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, policyCacheKey).Err(); err != nil {
		s.logger.Warn("settings cache invalidate", slog.Any("error", err))
	}
}
