package ledger

import (
	"context"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

// Entries collects the ledger rows a mutation produces. They commit in the
// same transaction as the account update, or not at all.
type Entries struct {
	Claims []models.RewardClaim
	Spins  []models.SpinRecord
}

// MutateFunc inspects and mutates an account record in place. Returning an
// error rolls the whole mutation back, entries included.
type MutateFunc func(acct *models.Account, entries *Entries) error

// Store provides transactional access to account records. Mutations on the
// same wallet serialize; mutations on different wallets never block each
// other.
type Store interface {
	// GetAccount returns the current record, or ErrAccountNotFound.
	GetAccount(ctx context.Context, wallet string) (*models.Account, error)
	// CreateAccount inserts a new record. A concurrent or earlier insert of
	// the same wallet yields ErrAccountExists.
	CreateAccount(ctx context.Context, acct *models.Account) error
	// MutateAccount runs fn against the current record under the store's
	// locking discipline and commits the mutated record together with any
	// entries fn appended. ErrAccountNotFound if the record is absent.
	MutateAccount(ctx context.Context, wallet string, fn MutateFunc) error
	// ListWallets pages through known wallets in stable order.
	ListWallets(ctx context.Context, offset, limit int) ([]string, error)
}
