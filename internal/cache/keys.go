package cache

import (
	"context"
	"fmt"
	"time"
)

// Identity lookups are cached briefly; application admin lists are
// deliberately NOT cached, every authorization check re-reads the registry.
const (
	IdentityKeyPrefix = "identity:%d"
	IdentityTTL       = 2 * time.Minute
)

func IdentityKey(userID uint) string {
	return fmt.Sprintf(IdentityKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateIdentity(ctx context.Context, userID uint) {
	Invalidate(ctx, IdentityKey(userID))
}
