package currency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var ErrRefreshThrottled = errors.New("rate refresh throttled")

// SnapshotStore persists the last good snapshot between restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, rates RateSnapshot, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context) (RateSnapshot, time.Time, error)
}

type RateCacheOptions struct {
	// RefreshInterval is how long a fetched snapshot counts as fresh.
	RefreshInterval time.Duration
	// MinRefreshInterval gates on-demand refreshes.
	MinRefreshInterval time.Duration
	Store              SnapshotStore
	Logger             log.Logger
}

// RateCache keeps the current snapshot and refreshes it from a RateSource.
// Readers never block on a fetch: a stale snapshot is served until a refresh succeeds.
type RateCache struct {
	source          RateSource
	store           SnapshotStore
	cache           *cache.Cache
	limiter         *rate.Limiter
	logger          log.Logger
	refreshInterval time.Duration

	mu          sync.RWMutex
	lastKnown   RateSnapshot
	lastRefresh time.Time

	fetchLock         sync.Mutex
	refreshInProgress atomic.Bool
}

func NewRateCache(source RateSource, opts RateCacheOptions) *RateCache {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.MinRefreshInterval <= 0 {
		opts.MinRefreshInterval = defaultMinRefreshInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	return &RateCache{
		source:          source,
		store:           opts.Store,
		cache:           cache.New(opts.RefreshInterval, opts.RefreshInterval*2),
		limiter:         rate.NewLimiter(rate.Every(opts.MinRefreshInterval), 1),
		logger:          log.With(opts.Logger, "component", "rate_cache"),
		refreshInterval: opts.RefreshInterval,
	}
}

// Snapshot returns the freshest snapshot available: the cached one, else the last known,
// else a snapshot holding only the base currency.
func (rc *RateCache) Snapshot() RateSnapshot {
	if data, found := rc.cache.Get(ratesCacheKey); found {
		return data.(RateSnapshot)
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.lastKnown != nil {
		return rc.lastKnown
	}
	return BaseOnlySnapshot()
}

// IsStale reports whether the cached snapshot expired or was never fetched.
func (rc *RateCache) IsStale() bool {
	_, found := rc.cache.Get(ratesCacheKey)
	return !found
}

func (rc *RateCache) LastRefresh() time.Time {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.lastRefresh
}

// InitialFetch fetches rates ignoring the refresh limiter.
func (rc *RateCache) InitialFetch(ctx context.Context) error {
	return rc.fetch(ctx)
}

// Refresh fetches rates unless a refresh happened within the minimum refresh interval.
func (rc *RateCache) Refresh(ctx context.Context) error {
	if !rc.limiter.Allow() {
		return ErrRefreshThrottled
	}
	return rc.fetch(ctx)
}

// RefreshIfStale starts a background refresh when the snapshot is stale and none is running.
func (rc *RateCache) RefreshIfStale(ctx context.Context) {
	if !rc.IsStale() {
		return
	}
	if !rc.refreshInProgress.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer rc.refreshInProgress.Store(false)
		err := rc.Refresh(context.WithoutCancel(ctx))
		if err != nil && !errors.Is(err, ErrRefreshThrottled) {
			level.Warn(rc.logger).Log("msg", "refreshing stale rates failed", "err", err)
		}
	}()
}

func (rc *RateCache) fetch(ctx context.Context) error {
	rc.fetchLock.Lock()
	defer rc.fetchLock.Unlock()

	var raw map[string]CurrencyRate
	err := retryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		raw, err = rc.source.FetchRates(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("refreshing rates: %w", err)
	}

	snapshot := PrepareRates(raw)
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("refreshing rates: %w", err)
	}

	fetchedAt := time.Now()
	rc.set(snapshot, fetchedAt, rc.refreshInterval)
	level.Info(rc.logger).Log("msg", "rates refreshed", "count", len(snapshot), "date", snapshot.Date())

	if rc.store != nil {
		if err := rc.store.SaveSnapshot(ctx, snapshot, fetchedAt); err != nil {
			level.Warn(rc.logger).Log("msg", "persisting rates failed", "err", err)
		}
	}
	return nil
}

func (rc *RateCache) set(snapshot RateSnapshot, fetchedAt time.Time, ttl time.Duration) {
	rc.mu.Lock()
	rc.lastKnown = snapshot
	rc.lastRefresh = fetchedAt
	rc.mu.Unlock()
	if ttl > 0 {
		rc.cache.Set(ratesCacheKey, snapshot, ttl)
	}
}

// LoadFromStore restores the persisted snapshot. It counts as fresh for whatever
// remains of its refresh interval.
func (rc *RateCache) LoadFromStore(ctx context.Context) error {
	if rc.store == nil {
		return nil
	}
	snapshot, fetchedAt, err := rc.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted rates: %w", err)
	}
	if len(snapshot) == 0 {
		level.Info(rc.logger).Log("msg", "no persisted rates found, will fetch fresh data")
		return nil
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("loading persisted rates: %w", err)
	}

	remaining := rc.refreshInterval - time.Since(fetchedAt)
	rc.set(snapshot, fetchedAt, remaining)
	level.Info(rc.logger).Log("msg", "loaded persisted rates", "count", len(snapshot), "age", time.Since(fetchedAt).Round(time.Second))
	return nil
}

// StartBackgroundUpdater refreshes rates every refresh interval until ctx is done.
func (rc *RateCache) StartBackgroundUpdater(ctx context.Context) {
	level.Info(rc.logger).Log("msg", "starting background rate updater", "interval", rc.refreshInterval)
	go rc.updateLoop(ctx, rc.refreshInterval)
}

func (rc *RateCache) updateLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := rc.fetch(ctx); err != nil {
				level.Error(rc.logger).Log("msg", "rate update failed", "err", err)
			}
		case <-ctx.Done():
			level.Info(rc.logger).Log("msg", "shutting down rate updater")
			return
		}
	}
}
