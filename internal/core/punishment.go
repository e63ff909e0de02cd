package core

import (
	"time"
)

// PunishmentPolicy maps a user's confirmed-spam occurrence number to a
// timeout duration. Escalation is kept as an explicit pure function so it
// can be tuned and tested on its own.
type PunishmentPolicy struct {
	baseTimeout time.Duration
}

// NewPunishmentPolicy creates a punishment policy with the given base timeout
func NewPunishmentPolicy(baseTimeout time.Duration) *PunishmentPolicy {
	return &PunishmentPolicy{baseTimeout: baseTimeout}
}

// TimeoutFor returns the timeout duration for the given confirmed-spam
// occurrence number. Severity scales linearly with repeat offenses.
func (p *PunishmentPolicy) TimeoutFor(occurrence int) time.Duration {
	if occurrence < 1 {
		occurrence = 1
	}
	return p.baseTimeout * time.Duration(occurrence)
}

// RateLimitTimeout returns the fixed timeout applied when a user trips the
// volume rate limit before any classifier verdict.
func (p *PunishmentPolicy) RateLimitTimeout() time.Duration {
	return p.baseTimeout
}
