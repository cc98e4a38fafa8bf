package whitelist

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/singleflight"
)

// MaxStaleFallbackSecs bounds how long a stale cache entry may still be
// served when the L1 node cannot produce a fresher one: 12 epochs' worth of
// 64-second slots.
const MaxStaleFallbackSecs = 12 * 64

// missRefreshCooldown is how long a rejected signer must wait before its
// rejection triggers another snapshot refresh, so that a spammer submitting
// garbage signatures cannot force a refetch on every single check.
const missRefreshCooldown = 12 * time.Second

type cachedPair struct {
	current                    common.Address
	next                       common.Address
	currentEpochStartTimestamp uint64
	blockTimestamp             uint64
	filledAt                   time.Time
}

// Cache is the in-instance, regression-tolerant whitelist sequencer cache.
// One Cache instance serializes its own admission checks: EnsureSignerAllowed
// takes an internal mutex for the duration of one check, mirroring the
// original driver's `&mut self` receiver.
type Cache struct {
	mu sync.Mutex

	fetcher *SnapshotFetcher

	pair      *cachedPair
	watermark uint64

	missRefreshUntil time.Time

	group singleflight.Group
}

// NewCache constructs an empty whitelist cache bound to the given fetcher.
func NewCache(fetcher *SnapshotFetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// EnsureSignerAllowed checks whether signer is the whitelisted operator for
// either the current or the next epoch.
//
// The algorithm mirrors the original driver's cached_whitelist_sequencers
// plus ensure_signer_allowed, in order: (1) read the cached pair, fetching a
// fresh snapshot if the cache is cold (this is the only fetch a cold cache
// ever needs); (2) accept immediately if signer matches; (3) if the pair
// just came from a fresh fetch rather than the cache, reject immediately —
// a second fetch within the same check would only let a spammer force
// repeated L1 round trips; (4) if the pair came from the cache and a
// miss-refresh cooldown is active, reject without fetching; (5) otherwise
// invalidate the cache, fetch once more, and check again before rejecting.
func (c *Cache) EnsureSignerAllowed(ctx context.Context, signer common.Address, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pair, fromCache, err := c.sequencersLocked(ctx, now)
	if err != nil {
		return err
	}

	if pair.current == signer || pair.next == signer {
		return nil
	}

	if !fromCache {
		return invalidSignatureError("signer is not the whitelisted sequencer")
	}

	if now.Before(c.missRefreshUntil) {
		log.Debug("Whitelist miss-refresh cooldown active, rejecting without refetch", "signer", signer)
		return invalidSignatureError("signer is not the whitelisted sequencer")
	}

	log.Debug("Whitelist signer not in cached pair, re-fetching", "signer", signer)
	c.pair = nil

	fresh, _, err := c.sequencersLocked(ctx, now)
	if err != nil {
		return err
	}

	c.missRefreshUntil = now.Add(missRefreshCooldown)

	if fresh.current == signer || fresh.next == signer {
		return nil
	}

	log.Debug(
		"Whitelist admission rejected after refresh",
		"signer", signer, "current", fresh.current, "next", fresh.next,
	)
	return invalidSignatureError("signer is not the whitelisted sequencer")
}

// CachedSequencers returns the cache's current view of the whitelist,
// fetching and caching a fresh snapshot on a cold cache exactly as
// EnsureSignerAllowed's first lookup does.
func (c *Cache) CachedSequencers(ctx context.Context, now time.Time) (current, next common.Address, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pair, _, err := c.sequencersLocked(ctx, now)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	return pair.current, pair.next, nil
}

// sequencersLocked must be called with c.mu held. It returns the cached
// pair if one is present, or fetches and caches a fresh snapshot if the
// cache is cold. fromCache reports whether the returned pair was already
// cached, as opposed to having just been fetched during this call.
func (c *Cache) sequencersLocked(ctx context.Context, now time.Time) (pair *cachedPair, fromCache bool, err error) {
	if c.pair != nil {
		return c.pair, true, nil
	}

	if _, err := c.refreshLocked(ctx, now); err != nil {
		return nil, false, err
	}

	return c.pair, false, nil
}

// refreshLocked must be called with c.mu held. It collapses concurrent
// refreshes within this process into a single L1 round trip via
// singleflight, then applies the staleness-window fallback and the
// regression check before accepting the new pair as the cache's watermark.
func (c *Cache) refreshLocked(ctx context.Context, now time.Time) (*Snapshot, error) {
	result, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.fetcher.FetchWithRetry(ctx)
	})
	if err != nil {
		if stale := c.staleFallbackLocked(now); stale != nil {
			log.Debug("Whitelist snapshot fetch failed, serving stale cache entry", "err", err)
			return stale, nil
		}
		return nil, err
	}

	snap := result.(*Snapshot)

	if snap.BlockTimestamp < snap.CurrentEpochStartTimestamp {
		if stale := c.staleFallbackLocked(now); stale != nil {
			return stale, nil
		}
		return nil, lookupError("observed block is too early for the reported epoch", nil)
	}

	if snap.CurrentEpochStartTimestamp < c.watermark {
		if stale := c.staleFallbackLocked(now); stale != nil {
			return stale, nil
		}
		return nil, lookupError("epoch start timestamp regressed relative to the cache watermark", nil)
	}

	c.setPairLocked(snap, now)

	return snap, nil
}

func (c *Cache) setPairLocked(snap *Snapshot, now time.Time) {
	c.pair = &cachedPair{
		current:                    snap.Current,
		next:                       snap.Next,
		currentEpochStartTimestamp: snap.CurrentEpochStartTimestamp,
		blockTimestamp:             snap.BlockTimestamp,
		filledAt:                   now,
	}
	if snap.CurrentEpochStartTimestamp > c.watermark {
		c.watermark = snap.CurrentEpochStartTimestamp
	}
}

// staleFallbackLocked returns the existing cached pair as a Snapshot if it is
// still within the staleness window, or nil if the cache is cold or has
// aged out.
func (c *Cache) staleFallbackLocked(now time.Time) *Snapshot {
	if c.pair == nil {
		return nil
	}
	if now.Sub(c.pair.filledAt) > MaxStaleFallbackSecs*time.Second {
		return nil
	}
	return &Snapshot{
		Current:                    c.pair.current,
		Next:                       c.pair.next,
		CurrentEpochStartTimestamp: c.pair.currentEpochStartTimestamp,
		BlockTimestamp:             c.pair.blockTimestamp,
	}
}
