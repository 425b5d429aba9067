package auth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-user-auth/config"
)

// loginThrottle counts failed login attempts per email inside a fixed
// window. It throttles credential stuffing only; session validity is
// never cached here.
type loginThrottle struct {
	attempts *gocache.Cache
	max      int
}

func newLoginThrottle(cfg config.RateLimitConfig) *loginThrottle {
	window := cfg.LoginWindow
	if window <= 0 {
		window = 5 * time.Minute
	}
	max := cfg.LoginMaxAttempts
	if max <= 0 {
		max = 10
	}
	return &loginThrottle{
		attempts: gocache.New(window, 2*window),
		max:      max,
	}
}

func (t *loginThrottle) blocked(email string) bool {
	if n, ok := t.attempts.Get(email); ok {
		return n.(int) >= t.max
	}
	return false
}

func (t *loginThrottle) fail(email string) {
	if err := t.attempts.Add(email, 1, gocache.DefaultExpiration); err != nil {
		// Key exists already, bump it inside its original window.
		_, _ = t.attempts.IncrementInt(email, 1)
	}
}

func (t *loginThrottle) reset(email string) {
	t.attempts.Delete(email)
}
