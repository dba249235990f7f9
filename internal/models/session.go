package models

import "time"

type Session struct {
	Token     string `gorm:"primaryKey"`
	Wallet    string `gorm:"index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
