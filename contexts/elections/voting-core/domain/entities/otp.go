package entities

import "time"

type OTP struct {
	OTPID     string
	VoterID   string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// ValidAt reports whether the code can still authenticate or be consumed.
func (o OTP) ValidAt(now time.Time) bool {
	return !o.Used && now.Before(o.ExpiresAt)
}
