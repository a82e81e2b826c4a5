// sales/retriever.go
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vendadia/blingserver/internal/auth"
	"github.com/vendadia/blingserver/pkg/blingclient"
)

// statusFilter is the fixed sales-order status queried for the dashboard.
const statusFilter = "Atendido"

// maxPages caps the pagination loop so a server that never returns an empty
// page cannot keep the retriever looping forever.
const maxPages = 100

// FetchError reports a failed sales retrieval. A fetch failure is transient:
// it never resets authentication state. Body carries the raw provider
// response; StatusCode is zero for transport-level failures.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sales fetch failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sales fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SalesAPI is the slice of the Bling client the retriever depends on.
type SalesAPI interface {
	ListSalesOrders(ctx context.Context, accessToken string, query blingclient.SalesQuery) ([]blingclient.SalesOrder, error)
}

// Retriever fetches a full day of sales orders page by page, caching the
// concatenated result per (date, credential epoch).
type Retriever struct {
	api    SalesAPI
	cache  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewRetriever creates a sales retriever with the given result cache TTL.
func NewRetriever(api SalesAPI, cache Store, ttl time.Duration, logger *zap.Logger) *Retriever {
	return &Retriever{
		api:    api,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// FetchDaySales returns every sales order for the given day with the fixed
// status filter, in page-concatenation order. Pages are requested strictly
// sequentially starting at 1 and the loop stops on the first empty page. A
// cache hit for (day, epoch) short-circuits the loop entirely; force
// invalidates the entry first and always goes to the network. Any non-2xx
// response aborts the whole fetch with a *FetchError and no partial result.
func (r *Retriever) FetchDaySales(ctx context.Context, cred *auth.Credential, epoch int64, day time.Time, force bool) ([]blingclient.SalesOrder, error) {
	key := cacheKey(day, epoch)

	if force {
		if err := r.cache.Delete(ctx, key); err != nil {
			r.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	} else {
		orders, err := r.cache.Get(ctx, key)
		if err == nil {
			r.logger.Debug("sales cache hit", zap.String("key", key), zap.Int("orders", len(orders)))
			return orders, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			// A broken cache must not break the fetch.
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	var all []blingclient.SalesOrder
	for page := 1; ; page++ {
		if page > maxPages {
			r.logger.Warn("pagination stopped at safety cap",
				zap.Int("max_pages", maxPages), zap.Int("orders", len(all)))
			break
		}

		orders, err := r.api.ListSalesOrders(ctx, cred.AccessToken, blingclient.SalesQuery{
			StartDate: day,
			EndDate:   day,
			Status:    statusFilter,
			Page:      page,
		})
		if err != nil {
			var apiErr *blingclient.APIError
			if errors.As(err, &apiErr) {
				return nil, &FetchError{StatusCode: apiErr.StatusCode, Body: apiErr.Body, Err: apiErr.Err}
			}
			return nil, &FetchError{Err: err}
		}

		if len(orders) == 0 {
			break
		}
		all = append(all, orders...)
	}

	if err := r.cache.Set(ctx, key, all, r.ttl); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	r.logger.Info("fetched day sales", zap.String("key", key), zap.Int("orders", len(all)))
	return all, nil
}
