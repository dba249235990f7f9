package models

import "time"

// Account is the per-wallet reward record. Balance and LastSettlement only
// change together, inside a single transaction.
type Account struct {
	Wallet           string `gorm:"primaryKey"`
	QualifyingAssets int
	Balance          int64
	LastSettlement   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
