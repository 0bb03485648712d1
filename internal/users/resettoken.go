package users

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResetTokens holds outstanding password-reset tokens in memory. A token is
// burned on first use and expires on its own after the TTL, so a reset link
// can never be replayed.
type ResetTokens struct {
	cache *gocache.Cache
}

func NewResetTokens(ttl time.Duration) *ResetTokens {
	return &ResetTokens{cache: gocache.New(ttl, ttl)}
}

// Issue mints an opaque token bound to the user.
func (r *ResetTokens) Issue(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	r.cache.SetDefault(token, userID)
	return token, nil
}

// Consume returns the user the token was issued for and deletes it. A token
// that was never issued, already used, or expired returns ok=false.
func (r *ResetTokens) Consume(token string) (userID string, ok bool) {
	v, found := r.cache.Get(token)
	if !found {
		return "", false
	}
	r.cache.Delete(token)
	id, ok := v.(string)
	return id, ok
}
