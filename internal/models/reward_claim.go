package models

import "time"

type RewardClaim struct {
	ID         uint   `gorm:"primaryKey"`
	Wallet     string `gorm:"index"`
	Hours      int64
	AssetCount int
	Amount     int64
	Timestamp  time.Time `gorm:"index"`
}
