package models

import "time"

// Verification channels. A code proves control of exactly one of them.
const (
	ChannelEmail = "EMAIL"
	ChannelPhone = "PHONE"
)

// OneTimeCode — one row per issued code. A code is consumable exactly once,
// before expires_at; there is no stored EXPIRED state, expiry is computed.
type OneTimeCode struct {
	ID        int64     `json:"id"`
	AccountID int       `json:"account_id"`
	Channel   string    `json:"channel"`
	Code      string    `json:"-"`
	Consumed  bool      `json:"consumed"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func IsValidChannel(channel string) bool {
	return channel == ChannelEmail || channel == ChannelPhone
}
