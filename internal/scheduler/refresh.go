// Package scheduler keeps cached holder counts from going stale: a cron
// job sweeps all known accounts through the oracle at the top of every
// hour, and the chain listener can kick an extra sweep on collection
// activity.
package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/Solstice-Labs/HolderPerks/internal/ledger"
	"github.com/Solstice-Labs/HolderPerks/internal/utils"
)

const sweepPageSize = 500

type RefreshScheduler struct {
	cron     *cron.Cron
	ledger   *ledger.Ledger
	store    ledger.Store
	sweeping atomic.Bool
}

func NewRefreshScheduler(l *ledger.Ledger, store ledger.Store) *RefreshScheduler {
	return &RefreshScheduler{
		cron:   cron.New(),
		ledger: l,
		store:  store,
	}
}

func (s *RefreshScheduler) Start() error {
	if _, err := s.cron.AddFunc("0 * * * *", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	utils.GetLogger().Info("holder refresh scheduler started")
	return nil
}

func (s *RefreshScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	utils.GetLogger().Info("holder refresh scheduler stopped")
}

// Kick runs a sweep outside the schedule, asynchronously. The chain
// listener calls this when collection activity is observed.
func (s *RefreshScheduler) Kick() {
	go s.sweep()
}

func (s *RefreshScheduler) sweep() {
	if !s.sweeping.CompareAndSwap(false, true) {
		// A sweep is already in flight; its result is fresh enough.
		return
	}
	defer s.sweeping.Store(false)

	logger := utils.GetLogger()
	ctx := context.Background()

	refreshed := 0
	for offset := 0; ; offset += sweepPageSize {
		wallets, err := s.store.ListWallets(ctx, offset, sweepPageSize)
		if err != nil {
			logger.Errorf("refresh sweep aborted listing wallets: %v", err)
			return
		}
		if len(wallets) == 0 {
			break
		}
		for _, w := range wallets {
			if _, err := s.ledger.RefreshHolderStatus(ctx, w); err != nil {
				logger.WithField("wallet", w).Warnf("holder refresh failed: %v", err)
				continue
			}
			refreshed++
		}
	}
	logger.WithField("accounts", refreshed).Info("holder refresh sweep finished")
}
