package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

type stubRepo struct {
	policy pricing.SalesPolicy
	err    error
	calls  int
}

func (s *stubRepo) SalesPolicy(ctx context.Context) (pricing.SalesPolicy, error) {
	s.calls++
	return s.policy, s.err
}

func (s *stubRepo) SaveSalesPolicy(ctx context.Context, policy pricing.SalesPolicy) error {
	s.policy = policy
	return nil
}

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPolicyCachesStoreReads(t *testing.T) {
	repo := &stubRepo{policy: pricing.SalesPolicy{MaxDiscountPercentWithoutApproval: 12}}
	svc := NewService(repo, newTestCache(t), time.Minute, discardLogger())

	ctx := context.Background()
	first := svc.Policy(ctx)
	second := svc.Policy(ctx)

	assert.Equal(t, 12.0, first.MaxDiscountPercentWithoutApproval)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls, "second read must be served from cache")
}

func TestPolicyFallsBackToDefaults(t *testing.T) {
	repo := &stubRepo{err: ErrNotFound}
	svc := NewService(repo, newTestCache(t), time.Minute, discardLogger())

	policy := svc.Policy(context.Background())
	assert.Equal(t, pricing.DefaultPolicy(), policy)
}

func TestPolicyStoreErrorDegrades(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	svc := NewService(repo, nil, time.Minute, discardLogger())

	policy := svc.Policy(context.Background())
	assert.Equal(t, float64(pricing.DefaultMaxDiscountPercent), policy.MaxDiscountPercentWithoutApproval)
}

func TestInvalidateDropsCache(t *testing.T) {
	repo := &stubRepo{policy: pricing.SalesPolicy{MaxDiscountPercentWithoutApproval: 15}}
	cache := newTestCache(t)
	svc := NewService(repo, cache, time.Minute, discardLogger())
	ctx := context.Background()

	svc.Policy(ctx)
	require.Equal(t, 1, repo.calls)

	svc.Invalidate(ctx)
	svc.Policy(ctx)
	assert.Equal(t, 2, repo.calls, "invalidate must force a store re-read")
}

func TestPolicyCachePayloadRoundTrips(t *testing.T) {
	repo := &stubRepo{policy: pricing.SalesPolicy{
		MaxDiscountPercentWithoutApproval: 10,
		TieredDiscounts:                   []pricing.Tier{{MinTotal: 50000, DiscountPercent: 5}},
	}}
	cache := newTestCache(t)
	svc := NewService(repo, cache, time.Minute, discardLogger())
	ctx := context.Background()

	svc.Policy(ctx)

	raw, err := cache.Get(ctx, policyCacheKey).Bytes()
	require.NoError(t, err)
	var cached pricing.SalesPolicy
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Len(t, cached.TieredDiscounts, 1)
}
