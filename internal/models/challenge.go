package models

import "time"

// Challenge is the single outstanding sign-in challenge for a wallet.
// One slot per wallet: issuing a new challenge overwrites the old one,
// and verification deletes it regardless of outcome.
type Challenge struct {
	Wallet    string `gorm:"primaryKey"`
	Nonce     string `gorm:"not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
