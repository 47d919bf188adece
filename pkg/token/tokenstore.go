package tokenstore

import (
	"sync"
	"time"
)

// in-memory revocation list keyed by jti. Entries are kept until the token
// would have expired anyway.
var (
	mu      sync.Mutex
	revoked = map[string]time.Time{}
	now     = time.Now
)

// RevokeToken marks jti as revoked until exp. A zero exp keeps it for a day.
func RevokeToken(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	if exp.IsZero() {
		exp = now().Add(24 * time.Hour)
	}
	mu.Lock()
	defer mu.Unlock()
	revoked[jti] = exp
	purgeLocked()
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	exp, ok := revoked[jti]
	if !ok {
		return false
	}
	if now().After(exp) {
		delete(revoked, jti)
		return false
	}
	return true
}

func purgeLocked() {
	t := now()
	for k, exp := range revoked {
		if t.After(exp) {
			delete(revoked, k)
		}
	}
}
