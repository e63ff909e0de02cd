package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutForScalesLinearly(t *testing.T) {
	policy := NewPunishmentPolicy(10 * time.Minute)

	assert.Equal(t, 10*time.Minute, policy.TimeoutFor(1))
	assert.Equal(t, 20*time.Minute, policy.TimeoutFor(2))
	assert.Equal(t, 50*time.Minute, policy.TimeoutFor(5))
}

func TestTimeoutForIsMonotonic(t *testing.T) {
	policy := NewPunishmentPolicy(10 * time.Minute)

	previous := time.Duration(0)
	for occurrence := 1; occurrence <= 10; occurrence++ {
		current := policy.TimeoutFor(occurrence)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestTimeoutForClampsBelowOne(t *testing.T) {
	policy := NewPunishmentPolicy(10 * time.Minute)

	assert.Equal(t, 10*time.Minute, policy.TimeoutFor(0))
	assert.Equal(t, 10*time.Minute, policy.TimeoutFor(-3))
}

func TestRateLimitTimeoutUsesBase(t *testing.T) {
	policy := NewPunishmentPolicy(10 * time.Minute)

	assert.Equal(t, 10*time.Minute, policy.RateLimitTimeout())
}
