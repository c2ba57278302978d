package service

import (
	"context"
	"time"
)

// storeTimeout bounds every store call made on a verification or consumption
// path. Hitting the bound fails closed: the caller is treated as
// unauthenticated / the token as invalid, never the other way around.
const storeTimeout = 5 * time.Second

func withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}
