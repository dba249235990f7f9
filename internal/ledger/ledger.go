package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

// HourlyRate is the number of reward units credited per qualifying asset
// per settled hour.
const HourlyRate = 10

// Oracle reports how many qualifying collection assets a wallet currently
// holds. Implementations never fail: an unreachable indexer degrades to
// zero, so the ledger always receives a best-effort count.
type Oracle interface {
	QualifyingAssets(ctx context.Context, wallet string) int
}

// SettleResult describes one applied settlement. Amount is zero when the
// wallet held no qualifying assets at claim time.
type SettleResult struct {
	Amount     int64
	Hours      int64
	AssetCount int
}

// Ledger owns accrual and claim eligibility for account records. All
// mutation goes through the store's per-wallet transactions, so concurrent
// claims on one wallet settle each hour bucket at most once.
type Ledger struct {
	store  Store
	oracle Oracle
	now    func() time.Time
}

func NewLedger(store Store, oracle Oracle) *Ledger {
	return &Ledger{store: store, oracle: oracle, now: time.Now}
}

// SettleAndClaim pays out accrual for every whole hour elapsed since the
// wallet's last settlement. A record missing entirely is created seeded to
// the previous hour bucket and the caller is told to retry, which also
// resolves the race between two concurrent first claims.
func (l *Ledger) SettleAndClaim(ctx context.Context, wallet string) (*SettleResult, error) {
	if wallet == "" {
		return nil, ErrUnauthenticated
	}

	acct, err := l.store.GetAccount(ctx, wallet)
	if errors.Is(err, ErrAccountNotFound) {
		seed := &models.Account{
			Wallet:         wallet,
			LastSettlement: hourStart(l.now()).Add(-time.Hour),
		}
		if cerr := l.store.CreateAccount(ctx, seed); cerr != nil && !errors.Is(cerr, ErrAccountExists) {
			return nil, cerr
		}
		return nil, ErrRetryNeeded
	}
	if err != nil {
		return nil, err
	}

	// Cheap pre-check before paying for an oracle round trip. The check
	// that actually matters runs again inside the transaction.
	if hoursBetween(acct.LastSettlement, hourStart(l.now())) < 1 {
		return nil, ErrTooEarly
	}

	count := l.oracle.QualifyingAssets(ctx, wallet)

	var res SettleResult
	err = l.store.MutateAccount(ctx, wallet, func(acct *models.Account, entries *Entries) error {
		currentHour := hourStart(l.now())
		hours := hoursBetween(acct.LastSettlement, currentHour)
		if hours < 1 {
			// A concurrent claim settled this bucket first.
			return ErrTooEarly
		}

		// The freshly observed count is persisted even on a zero-reward
		// outcome; the cached value is only a change-detection signal.
		acct.QualifyingAssets = count

		if count == 0 {
			// No accrual while unqualified: the unpaid hours are burned.
			acct.LastSettlement = currentHour
			res = SettleResult{Hours: hours}
			return nil
		}

		amount := hours * int64(count) * HourlyRate
		acct.Balance += amount
		acct.LastSettlement = currentHour
		entries.Claims = append(entries.Claims, models.RewardClaim{
			Wallet:     wallet,
			Hours:      hours,
			AssetCount: count,
			Amount:     amount,
			Timestamp:  l.now().UTC(),
		})
		res = SettleResult{Amount: amount, Hours: hours, AssetCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RefreshHolderStatus re-queries the oracle and persists the cached count.
// Only a first-ever write seeds LastSettlement (to the previous hour
// bucket); on an existing record the timestamp never moves, so an
// unrelated refresh cannot reset accrual progress. Idempotent.
func (l *Ledger) RefreshHolderStatus(ctx context.Context, wallet string) (int, error) {
	if wallet == "" {
		return 0, ErrUnauthenticated
	}

	count := l.oracle.QualifyingAssets(ctx, wallet)

	update := func(acct *models.Account, _ *Entries) error {
		acct.QualifyingAssets = count
		return nil
	}

	err := l.store.MutateAccount(ctx, wallet, update)
	if errors.Is(err, ErrAccountNotFound) {
		seed := &models.Account{
			Wallet:           wallet,
			QualifyingAssets: count,
			LastSettlement:   hourStart(l.now()).Add(-time.Hour),
		}
		err = l.store.CreateAccount(ctx, seed)
		if errors.Is(err, ErrAccountExists) {
			// Lost the create race; the record exists now.
			err = l.store.MutateAccount(ctx, wallet, update)
		}
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// hourStart truncates t down to its hour bucket, in UTC.
func hourStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// hoursBetween returns the number of whole hours from a to b.
func hoursBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / time.Hour)
}
