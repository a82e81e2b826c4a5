// sales/cache.go
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vendadia/blingserver/pkg/blingclient"
)

// ErrCacheMiss is returned by Store.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("sales cache miss")

// Store caches a day's concatenated sales orders. Keys pair the query date
// with the credential epoch, so data fetched under a superseded credential
// is never served for the live one.
type Store interface {
	Get(ctx context.Context, key string) ([]blingclient.SalesOrder, error)
	Set(ctx context.Context, key string, orders []blingclient.SalesOrder, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// cacheKey builds the (date, credential-epoch) cache key.
func cacheKey(day time.Time, epoch int64) string {
	return fmt.Sprintf("sales:%s:%d", day.Format("2006-01-02"), epoch)
}
