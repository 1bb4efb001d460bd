package currency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateSource struct {
	mu    sync.Mutex
	rates map[string]CurrencyRate
	err   error
	calls int
}

func (f *fakeRateSource) FetchRates(ctx context.Context) (map[string]CurrencyRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func (f *fakeRateSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRateSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshot  RateSnapshot
	fetchedAt time.Time
	saves     int
	loadErr   error
}

func (s *fakeSnapshotStore) SaveSnapshot(ctx context.Context, rates RateSnapshot, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = rates
	s.fetchedAt = fetchedAt
	s.saves++
	return nil
}

func (s *fakeSnapshotStore) LoadSnapshot(ctx context.Context) (RateSnapshot, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.fetchedAt, s.loadErr
}

func (s *fakeSnapshotStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func shortRetryDelay(t *testing.T) {
	t.Helper()
	prev := baseRetryDelay
	baseRetryDelay = time.Millisecond
	t.Cleanup(func() { baseRetryDelay = prev })
}

func TestRateCacheSnapshotBeforeFetch(t *testing.T) {
	rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{})

	assert.Equal(t, BaseOnlySnapshot(), rc.Snapshot())
	assert.True(t, rc.IsStale())
	assert.True(t, rc.LastRefresh().IsZero())
}

func TestRateCacheInitialFetch(t *testing.T) {
	store := &fakeSnapshotStore{}
	rc := NewRateCache(&fakeRateSource{rates: mockRates()}, RateCacheOptions{Store: store})

	require.NoError(t, rc.InitialFetch(context.Background()))

	snapshot := rc.Snapshot()
	assert.True(t, snapshot.Has("EUR"))
	assert.True(t, snapshot.Has(BaseCurrency))
	assert.False(t, rc.IsStale())
	assert.False(t, rc.LastRefresh().IsZero())

	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, snapshot, store.snapshot)
}

func TestRateCacheFetchRetriesThenFails(t *testing.T) {
	shortRetryDelay(t)
	source := &fakeRateSource{err: errors.New("unreachable")}
	rc := NewRateCache(source, RateCacheOptions{})

	err := rc.InitialFetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Equal(t, maxRetries, source.callCount())
	assert.Equal(t, BaseOnlySnapshot(), rc.Snapshot())
}

func TestRateCacheKeepsLastKnownOnFailure(t *testing.T) {
	shortRetryDelay(t)
	source := &fakeRateSource{rates: mockRates()}
	rc := NewRateCache(source, RateCacheOptions{MinRefreshInterval: time.Nanosecond})
	require.NoError(t, rc.InitialFetch(context.Background()))

	source.setErr(errors.New("down"))
	require.Error(t, rc.InitialFetch(context.Background()))
	assert.True(t, rc.Snapshot().Has("SEK"))
}

func TestRateCacheRejectsBadBase(t *testing.T) {
	source := &fakeRateSource{rates: map[string]CurrencyRate{
		"usd": {Rate: 2, InverseRate: 0.5},
		"eur": {Rate: 0.9, InverseRate: 1.1},
	}}
	rc := NewRateCache(source, RateCacheOptions{})

	err := rc.InitialFetch(context.Background())
	assert.ErrorIs(t, err, ErrMissingBaseCurrency)
	assert.False(t, rc.Snapshot().Has("EUR"))
}

func TestRateCacheRefreshThrottled(t *testing.T) {
	source := &fakeRateSource{rates: mockRates()}
	rc := NewRateCache(source, RateCacheOptions{MinRefreshInterval: time.Hour})

	require.NoError(t, rc.Refresh(context.Background()))
	assert.ErrorIs(t, rc.Refresh(context.Background()), ErrRefreshThrottled)
	assert.Equal(t, 1, source.callCount())
}

func TestRateCacheRefreshIfStale(t *testing.T) {
	source := &fakeRateSource{rates: mockRates()}
	rc := NewRateCache(source, RateCacheOptions{})

	rc.RefreshIfStale(context.Background())
	require.Eventually(t, func() bool { return !rc.IsStale() }, time.Second, 5*time.Millisecond)
	assert.True(t, rc.Snapshot().Has("EUR"))

	rc.RefreshIfStale(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, source.callCount(), "a fresh snapshot is not refetched")
}

func TestRateCacheLoadFromStore(t *testing.T) {
	persisted := preparedMockRates()

	t.Run("fresh", func(t *testing.T) {
		store := &fakeSnapshotStore{snapshot: persisted, fetchedAt: time.Now().Add(-time.Hour)}
		rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{Store: store, RefreshInterval: 6 * time.Hour})

		require.NoError(t, rc.LoadFromStore(context.Background()))
		assert.False(t, rc.IsStale())
		assert.Equal(t, persisted, rc.Snapshot())
	})

	t.Run("expired", func(t *testing.T) {
		store := &fakeSnapshotStore{snapshot: persisted, fetchedAt: time.Now().Add(-7 * time.Hour)}
		rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{Store: store, RefreshInterval: 6 * time.Hour})

		require.NoError(t, rc.LoadFromStore(context.Background()))
		assert.True(t, rc.IsStale())
		assert.Equal(t, persisted, rc.Snapshot(), "an expired snapshot is still served")
	})

	t.Run("empty", func(t *testing.T) {
		rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{Store: &fakeSnapshotStore{}})
		require.NoError(t, rc.LoadFromStore(context.Background()))
		assert.Equal(t, BaseOnlySnapshot(), rc.Snapshot())
	})

	t.Run("error", func(t *testing.T) {
		store := &fakeSnapshotStore{loadErr: errors.New("disk")}
		rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{Store: store})
		assert.Error(t, rc.LoadFromStore(context.Background()))
	})

	t.Run("no store", func(t *testing.T) {
		rc := NewRateCache(&fakeRateSource{}, RateCacheOptions{})
		assert.NoError(t, rc.LoadFromStore(context.Background()))
	})
}

func TestRateCacheBackgroundUpdater(t *testing.T) {
	source := &fakeRateSource{rates: mockRates()}
	rc := NewRateCache(source, RateCacheOptions{RefreshInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	rc.StartBackgroundUpdater(ctx)
	require.Eventually(t, func() bool { return source.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	calls := source.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "the updater stops with its context")
}

func TestRetryWithBackoffStopsOnOpenCircuit(t *testing.T) {
	shortRetryDelay(t)
	attempts := 0
	err := retryWithBackoff(context.Background(), func(context.Context) error {
		attempts++
		return ErrCircuitOpen
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := retryWithBackoff(ctx, func(context.Context) error {
		attempts++
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
