package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

const testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type stubOracle struct {
	mu    sync.Mutex
	count int
}

func (o *stubOracle) QualifyingAssets(context.Context, string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

func (o *stubOracle) set(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count = n
}

func newTestLedger(count int) (*Ledger, *MemoryStore, *stubOracle) {
	store := NewMemoryStore()
	orc := &stubOracle{count: count}
	l := NewLedger(store, orc)
	return l, store, orc
}

// fixClock pins the ledger clock to a deterministic instant.
func fixClock(l *Ledger, at time.Time) {
	l.now = func() time.Time { return at }
}

func seedAccount(t *testing.T, store *MemoryStore, lastSettlement time.Time, balance int64, assets int) {
	t.Helper()
	require.NoError(t, store.CreateAccount(context.Background(), &models.Account{
		Wallet:           testWallet,
		QualifyingAssets: assets,
		Balance:          balance,
		LastSettlement:   lastSettlement,
	}))
}

func TestSettleEmptyWalletUnauthenticated(t *testing.T) {
	l, _, _ := newTestLedger(1)
	_, err := l.SettleAndClaim(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSettleCreatesRecordAndAsksForRetry(t *testing.T) {
	l, store, _ := newTestLedger(1)
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	fixClock(l, now)

	_, err := l.SettleAndClaim(context.Background(), testWallet)
	require.ErrorIs(t, err, ErrRetryNeeded)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), acct.LastSettlement)
	assert.Equal(t, int64(0), acct.Balance)
}

func TestSettleTooEarlyLeavesStateUntouched(t *testing.T) {
	l, store, _ := newTestLedger(3)
	now := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	fixClock(l, now)
	seedAccount(t, store, now.Truncate(time.Hour), 100, 3)

	_, err := l.SettleAndClaim(context.Background(), testWallet)
	assert.ErrorIs(t, err, ErrTooEarly)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)
	assert.Equal(t, now.Truncate(time.Hour), acct.LastSettlement)
	assert.Empty(t, store.Claims(testWallet))
}

func TestSettleCreditsHoursTimesAssetsTimesRate(t *testing.T) {
	l, store, _ := newTestLedger(2)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)
	// Created three hours ago, never settled.
	seedAccount(t, store, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 0, 0)

	res, err := l.SettleAndClaim(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(60), res.Amount)
	assert.Equal(t, int64(3), res.Hours)
	assert.Equal(t, 2, res.AssetCount)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(60), acct.Balance)
	assert.Equal(t, time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), acct.LastSettlement)
	assert.Equal(t, 2, acct.QualifyingAssets)

	claims := store.Claims(testWallet)
	require.Len(t, claims, 1)
	assert.Equal(t, int64(60), claims[0].Amount)
	assert.Equal(t, int64(3), claims[0].Hours)
}

func TestSettleSecondCallSameHourTooEarly(t *testing.T) {
	l, store, _ := newTestLedger(1)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)
	seedAccount(t, store, time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC), 0, 1)

	_, err := l.SettleAndClaim(context.Background(), testWallet)
	require.NoError(t, err)

	_, err = l.SettleAndClaim(context.Background(), testWallet)
	assert.ErrorIs(t, err, ErrTooEarly)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(20), acct.Balance)
	assert.Len(t, store.Claims(testWallet), 1)
}

func TestSettleZeroHoldingsBurnsHours(t *testing.T) {
	l, store, _ := newTestLedger(0)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)
	seedAccount(t, store, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), 50, 4)

	res, err := l.SettleAndClaim(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Amount)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acct.Balance, "zero-reward outcome must not touch the balance")
	assert.Equal(t, time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), acct.LastSettlement,
		"unpaid hours are burned while unqualified")
	assert.Equal(t, 0, acct.QualifyingAssets, "fresh count persisted even with zero reward")
	assert.Empty(t, store.Claims(testWallet))
}

func TestSettlePersistsFreshCount(t *testing.T) {
	l, store, _ := newTestLedger(4)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)
	seedAccount(t, store, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), 0, 1)

	res, err := l.SettleAndClaim(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.Amount, "payout uses the fresh count, not the cached one")

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 4, acct.QualifyingAssets)
}

func TestConcurrentSettleSingleAccrual(t *testing.T) {
	l, store, _ := newTestLedger(2)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)
	seedAccount(t, store, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 0, 2)

	const callers = 16
	var wg sync.WaitGroup
	successes := make(chan int64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.SettleAndClaim(context.Background(), testWallet)
			if err == nil {
				successes <- res.Amount
				return
			}
			if !errors.Is(err, ErrTooEarly) {
				t.Errorf("unexpected settle error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(successes)

	var paid []int64
	for amt := range successes {
		paid = append(paid, amt)
	}
	require.Len(t, paid, 1, "exactly one caller settles the hour bucket")
	assert.Equal(t, int64(60), paid[0])

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(60), acct.Balance, "no double payment")
	assert.Len(t, store.Claims(testWallet), 1)
}

func TestRefreshSeedsOnlyFirstWrite(t *testing.T) {
	l, store, orc := newTestLedger(5)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	fixClock(l, now)

	count, err := l.RefreshHolderStatus(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	seeded := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, seeded, acct.LastSettlement)
	assert.Equal(t, 5, acct.QualifyingAssets)

	// A later refresh moves the count but never the timestamp.
	fixClock(l, now.Add(2*time.Hour))
	orc.set(7)
	count, err = l.RefreshHolderStatus(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	acct, err = store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, seeded, acct.LastSettlement, "refresh must not reset accrual progress")
	assert.Equal(t, 7, acct.QualifyingAssets)
}

func TestRefreshIsIdempotent(t *testing.T) {
	l, store, _ := newTestLedger(3)
	fixClock(l, time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := l.RefreshHolderStatus(context.Background(), testWallet)
		require.NoError(t, err)
	}

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 3, acct.QualifyingAssets)
	assert.Equal(t, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), acct.LastSettlement)
}

func TestMutateRollbackOnError(t *testing.T) {
	store := NewMemoryStore()
	seedAccount(t, store, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), 42, 1)

	err := store.MutateAccount(context.Background(), testWallet, func(acct *models.Account, entries *Entries) error {
		acct.Balance = 0
		entries.Claims = append(entries.Claims, models.RewardClaim{Wallet: testWallet, Amount: 1})
		return errors.New("boom")
	})
	require.Error(t, err)

	acct, err := store.GetAccount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(42), acct.Balance, "failed mutation leaves the record as it was")
	assert.Empty(t, store.Claims(testWallet))
}

func TestHourStartAlignment(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), hourStart(at))
	assert.Equal(t, int64(0), hoursBetween(hourStart(at), hourStart(at)))
	assert.Equal(t, int64(5), hoursBetween(hourStart(at).Add(-5*time.Hour), hourStart(at)))
}
