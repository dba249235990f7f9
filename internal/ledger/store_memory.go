package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

// MemoryStore keeps account records in process memory with one lock per
// wallet. It backs tests and single-process deployments where Postgres is
// not worth carrying.
type MemoryStore struct {
	mu     sync.Mutex
	accts  map[string]*memoryAccount
	claims []models.RewardClaim
	spins  []models.SpinRecord
}

type memoryAccount struct {
	mu   sync.Mutex
	acct models.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accts: make(map[string]*memoryAccount)}
}

func (s *MemoryStore) GetAccount(_ context.Context, wallet string) (*models.Account, error) {
	s.mu.Lock()
	entry, ok := s.accts[wallet]
	s.mu.Unlock()
	if !ok {
		return nil, ErrAccountNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	acct := entry.acct
	return &acct, nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts[acct.Wallet]; ok {
		return ErrAccountExists
	}
	s.accts[acct.Wallet] = &memoryAccount{acct: *acct}
	return nil
}

func (s *MemoryStore) MutateAccount(_ context.Context, wallet string, fn MutateFunc) error {
	s.mu.Lock()
	entry, ok := s.accts[wallet]
	s.mu.Unlock()
	if !ok {
		return ErrAccountNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Work on a copy so a failed mutation leaves the record untouched.
	acct := entry.acct
	var entries Entries
	if err := fn(&acct, &entries); err != nil {
		return err
	}
	entry.acct = acct

	s.mu.Lock()
	s.claims = append(s.claims, entries.Claims...)
	s.spins = append(s.spins, entries.Spins...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListWallets(_ context.Context, offset, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallets := make([]string, 0, len(s.accts))
	for w := range s.accts {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)

	if offset >= len(wallets) {
		return nil, nil
	}
	end := offset + limit
	if end > len(wallets) {
		end = len(wallets)
	}
	return wallets[offset:end], nil
}

// Claims returns the recorded settlement rows for a wallet, oldest first.
func (s *MemoryStore) Claims(wallet string) []models.RewardClaim {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RewardClaim
	for _, c := range s.claims {
		if c.Wallet == wallet {
			out = append(out, c)
		}
	}
	return out
}

// Spins returns the recorded wager rows for a wallet, oldest first.
func (s *MemoryStore) Spins(wallet string) []models.SpinRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SpinRecord
	for _, sp := range s.spins {
		if sp.Wallet == wallet {
			out = append(out, sp)
		}
	}
	return out
}
