package models

import "time"

type SpinRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Wallet    string `gorm:"index"`
	Slot      int
	Payout    int64
	Timestamp time.Time `gorm:"index"`
}
