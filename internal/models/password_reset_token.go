package models

import "time"

type PasswordResetToken struct {
	ID        int        `json:"id"`
	AccountID int        `json:"account_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
