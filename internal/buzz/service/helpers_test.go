package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	repo     *repository.GormRepository
	codec    *token.Codec
	clock    *testClock
	ledger   *Ledger
	redeemer *Coordinator
	settle   *Aggregator
	refs     *Referrals
	coupons  *Coupons
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "sqlite:file:" + uuid.NewString() + "?mode=memory&cache=shared"
	repo, err := repository.Open(dsn, logr.Discard())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })

	codec, err := token.NewCodec("test-secret")
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	deps := Deps{Repo: repo, Codec: codec, Log: logr.Discard(), Now: clock.Now}
	ledger := NewLedger(deps, 1000)

	return &testEnv{
		repo:     repo,
		codec:    codec,
		clock:    clock,
		ledger:   ledger,
		redeemer: NewCoordinator(deps, ledger),
		settle:   NewAggregator(deps),
		refs:     NewReferrals(deps, ledger),
		coupons:  NewCoupons(deps),
	}
}

func (e *testEnv) today() string {
	return e.clock.Now().Format(models.DateLayout)
}

func (e *testEnv) template(t *testing.T, kind models.DiscountKind, value, maxDiscount int64, limit int) *models.CouponTemplate {
	t.Helper()
	now := e.clock.Now()
	tmpl := &models.CouponTemplate{
		Name:          "test " + string(kind),
		DiscountKind:  kind,
		DiscountValue: value,
		MaxDiscount:   maxDiscount,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(30 * 24 * time.Hour),
		ValidityDays:  7,
		PerUserLimit:  limit,
	}
	require.NoError(t, e.coupons.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func (e *testEnv) coupon(t *testing.T, kind models.DiscountKind, value int64, owner int64) *models.IssuedCoupon {
	t.Helper()
	tmpl := e.template(t, kind, value, 0, 10)
	c, err := e.coupons.Issue(context.Background(), tmpl.ID, owner)
	require.NoError(t, err)
	return c
}

func (e *testEnv) couponToken(t *testing.T, c *models.IssuedCoupon) string {
	t.Helper()
	raw, _, err := e.coupons.RedemptionToken(context.Background(), c.ID, c.OwnerID)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) fund(t *testing.T, userID, amount int64) {
	t.Helper()
	_, err := e.ledger.Earn(context.Background(), userID, amount, "test funding")
	require.NoError(t, err)
}

// race runs fn n times concurrently and returns every result
func race(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func countNil(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}
