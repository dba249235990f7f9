package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

const mutateAttempts = 3

// GormStore persists account records in Postgres. MutateAccount locks the
// row with SELECT ... FOR UPDATE, so concurrent mutations of one wallet
// serialize at the database while other wallets proceed untouched.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetAccount(ctx context.Context, wallet string) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).First(&acct, "wallet = ?", wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, acct *models.Account) error {
	err := s.db.WithContext(ctx).Create(acct).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAccountExists
	}
	return err
}

func (s *GormStore) MutateAccount(ctx context.Context, wallet string, fn MutateFunc) error {
	var err error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var acct models.Account
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&acct, "wallet = ?", wallet).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrAccountNotFound
				}
				return err
			}

			var entries Entries
			if err := fn(&acct, &entries); err != nil {
				return err
			}

			if err := tx.Save(&acct).Error; err != nil {
				return err
			}
			for i := range entries.Claims {
				if err := tx.Create(&entries.Claims[i]).Error; err != nil {
					return err
				}
			}
			for i := range entries.Spins {
				if err := tx.Create(&entries.Spins[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil || !retryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("%w: transaction kept conflicting after %d attempts: %v",
		ErrInternal, mutateAttempts, err)
}

func (s *GormStore) ListWallets(ctx context.Context, offset, limit int) ([]string, error) {
	var wallets []string
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Order("wallet").Offset(offset).Limit(limit).
		Pluck("wallet", &wallets).Error
	return wallets, err
}

// retryableTxError reports whether the transaction failed on a conflict that
// a re-run of the read-check-write body can resolve.
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
