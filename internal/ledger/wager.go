package ledger

import (
	"context"
	"math/rand"
	"time"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

// SpinCost is deducted from the balance on every accepted wager.
const SpinCost = 10

// Tier is one weighted payout category. Slots are the wheel positions that
// display this tier; which slot within a tier comes up is cosmetic and
// never changes the payout.
type Tier struct {
	Weight int // percent of all draws
	Payout int64
	Slots  []int
}

// DefaultWheel is the production payout table: four losing slots, two
// double slots and a single jackpot slot.
var DefaultWheel = []Tier{
	{Weight: 60, Payout: 0, Slots: []int{0, 2, 4, 6}},
	{Weight: 30, Payout: 2 * SpinCost, Slots: []int{1, 5}},
	{Weight: 10, Payout: 3 * SpinCost, Slots: []int{3}},
}

// SpinResult is the resolved outcome of one wager. Balance is the balance
// after the cost was deducted and the payout credited.
type SpinResult struct {
	Slot    int
	Payout  int64
	Balance int64
}

// Wheel resolves wagers against the ledger balance. Cost deduction, payout
// credit and the eligibility check all happen inside one store transaction.
type Wheel struct {
	store Store
	tiers []Tier
	draw  func() float64
}

func NewWheel(store Store) *Wheel {
	return NewWheelWithDraw(store, DefaultWheel, rand.Float64)
}

// NewWheelWithDraw injects the payout table and the uniform [0,1) source,
// which tests use to force a tier.
func NewWheelWithDraw(store Store, tiers []Tier, draw func() float64) *Wheel {
	return &Wheel{store: store, tiers: tiers, draw: draw}
}

// ResolveWager deducts SpinCost and credits the drawn tier's payout. The
// balance is judged on the row read inside the transaction, never on
// anything the caller saw earlier, so two concurrent wagers cannot both
// pass the check against a stale balance.
func (w *Wheel) ResolveWager(ctx context.Context, wallet string) (*SpinResult, error) {
	if wallet == "" {
		return nil, ErrUnauthenticated
	}

	var res SpinResult
	err := w.store.MutateAccount(ctx, wallet, func(acct *models.Account, entries *Entries) error {
		if acct.Balance < SpinCost {
			return ErrInsufficientBalance
		}

		slot, payout := w.spin()
		acct.Balance = acct.Balance - SpinCost + payout
		entries.Spins = append(entries.Spins, models.SpinRecord{
			Wallet:    wallet,
			Slot:      slot,
			Payout:    payout,
			Timestamp: time.Now().UTC(),
		})
		res = SpinResult{Slot: slot, Payout: payout, Balance: acct.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (w *Wheel) spin() (int, int64) {
	r := w.draw() * 100
	for _, tier := range w.tiers {
		if r < float64(tier.Weight) {
			return tier.Slots[w.pickSlot(len(tier.Slots))], tier.Payout
		}
		r -= float64(tier.Weight)
	}
	// Unreachable unless draw returns a value outside [0,1).
	last := w.tiers[len(w.tiers)-1]
	return last.Slots[0], last.Payout
}

func (w *Wheel) pickSlot(n int) int {
	if n == 1 {
		return 0
	}
	idx := int(w.draw() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}
