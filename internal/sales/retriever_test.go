// sales/retriever_test.go
package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendadia/blingserver/internal/auth"
	"github.com/vendadia/blingserver/pkg/blingclient"
)

// fakeAPI serves a fixed sequence of pages and counts requests.
type fakeAPI struct {
	pages [][]blingclient.SalesOrder
	err   error
	calls int
}

func (f *fakeAPI) ListSalesOrders(_ context.Context, _ string, query blingclient.SalesQuery) ([]blingclient.SalesOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if query.Page-1 < len(f.pages) {
		return f.pages[query.Page-1], nil
	}
	return nil, nil
}

// endlessAPI never returns an empty page.
type endlessAPI struct {
	calls int
}

func (f *endlessAPI) ListSalesOrders(_ context.Context, _ string, _ blingclient.SalesQuery) ([]blingclient.SalesOrder, error) {
	f.calls++
	return []blingclient.SalesOrder{{Number: fmt.Sprintf("%d", f.calls), Total: decimal.New(1, 0)}}, nil
}

func makePages(sizes ...int) [][]blingclient.SalesOrder {
	var pages [][]blingclient.SalesOrder
	n := 0
	for _, size := range sizes {
		page := make([]blingclient.SalesOrder, 0, size)
		for i := 0; i < size; i++ {
			n++
			page = append(page, blingclient.SalesOrder{
				Number: fmt.Sprintf("%d", n),
				Date:   "2026-08-31",
				Total:  decimal.New(10, 0),
			})
		}
		pages = append(pages, page)
	}
	return pages
}

func testCredential() *auth.Credential {
	return &auth.Credential{
		AccessToken: "access-123",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestFetchDaySales_ConcatenatesPagesInOrder(t *testing.T) {
	api := &fakeAPI{pages: makePages(100, 100, 37)}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	orders, err := r.FetchDaySales(context.Background(), testCredential(), 1, day, false)
	require.NoError(t, err)

	require.Len(t, orders, 237)
	// Three full/partial pages plus the empty terminator.
	require.Equal(t, 4, api.calls)

	// Page-then-within-page order is preserved.
	for i, order := range orders {
		require.Equal(t, fmt.Sprintf("%d", i+1), order.Number)
	}
}

func TestFetchDaySales_TerminatesAtSafetyCap(t *testing.T) {
	api := &endlessAPI{}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	orders, err := r.FetchDaySales(context.Background(), testCredential(), 1, day, false)
	require.NoError(t, err)

	require.Equal(t, maxPages, api.calls)
	require.Len(t, orders, maxPages)
}

func TestFetchDaySales_CacheHitSkipsNetwork(t *testing.T) {
	api := &fakeAPI{pages: makePages(5)}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	cred := testCredential()

	first, err := r.FetchDaySales(context.Background(), cred, 1, day, false)
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)

	second, err := r.FetchDaySales(context.Background(), cred, 1, day, false)
	require.NoError(t, err)
	require.Equal(t, 2, api.calls, "second call must be served from cache")
	require.Equal(t, first, second)
}

func TestFetchDaySales_ForceRefreshBypassesCache(t *testing.T) {
	api := &fakeAPI{pages: makePages(5)}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	cred := testCredential()

	_, err := r.FetchDaySales(context.Background(), cred, 1, day, false)
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)

	_, err = r.FetchDaySales(context.Background(), cred, 1, day, true)
	require.NoError(t, err)
	require.Equal(t, 4, api.calls, "force refresh must always hit the network")
}

func TestFetchDaySales_NewEpochMissesCache(t *testing.T) {
	api := &fakeAPI{pages: makePages(5)}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	cred := testCredential()

	_, err := r.FetchDaySales(context.Background(), cred, 1, day, false)
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)

	// Data cached under a superseded credential epoch is never served.
	_, err = r.FetchDaySales(context.Background(), cred, 2, day, false)
	require.NoError(t, err)
	require.Equal(t, 4, api.calls)
}

func TestFetchDaySales_APIErrorAbortsWholeFetch(t *testing.T) {
	api := &fakeAPI{err: &blingclient.APIError{StatusCode: 500, Body: `{"error":"internal"}`}}
	store := NewMemoryStore()
	r := NewRetriever(api, store, time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	orders, err := r.FetchDaySales(context.Background(), testCredential(), 1, day, false)
	require.Error(t, err)
	require.Nil(t, orders, "no partial result on failure")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 500, fetchErr.StatusCode)
	require.Contains(t, fetchErr.Body, "internal")

	// Nothing was cached.
	_, cacheErr := store.Get(context.Background(), cacheKey(day, 1))
	require.ErrorIs(t, cacheErr, ErrCacheMiss)
}

func TestFetchDaySales_SendsFixedFilter(t *testing.T) {
	var gotQuery blingclient.SalesQuery
	api := &queryCapturingAPI{capture: &gotQuery}
	r := NewRetriever(api, NewMemoryStore(), time.Hour, zap.NewNop())

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	_, err := r.FetchDaySales(context.Background(), testCredential(), 1, day, false)
	require.NoError(t, err)

	require.Equal(t, day, gotQuery.StartDate)
	require.Equal(t, day, gotQuery.EndDate)
	require.Equal(t, "Atendido", gotQuery.Status)
}

type queryCapturingAPI struct {
	capture *blingclient.SalesQuery
}

func (f *queryCapturingAPI) ListSalesOrders(_ context.Context, _ string, query blingclient.SalesQuery) ([]blingclient.SalesOrder, error) {
	*f.capture = query
	return nil, nil
}
