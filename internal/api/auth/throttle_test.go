package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-user-auth/config"
)

func TestLoginThrottle(t *testing.T) {
	throttle := newLoginThrottle(config.RateLimitConfig{
		LoginMaxAttempts: 3,
		LoginWindow:      time.Minute,
	})

	assert.False(t, throttle.blocked("a@example.com"))

	throttle.fail("a@example.com")
	throttle.fail("a@example.com")
	assert.False(t, throttle.blocked("a@example.com"))

	throttle.fail("a@example.com")
	assert.True(t, throttle.blocked("a@example.com"))

	// Counters are tracked per email.
	assert.False(t, throttle.blocked("b@example.com"))

	throttle.reset("a@example.com")
	assert.False(t, throttle.blocked("a@example.com"))
}
