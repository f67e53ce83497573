// Package cache is the shared remote-data cache. Screens subscribe to a key
// with a fetcher; concurrent reads of a key share one in-flight request and
// every subscriber sees the same data. Writes after a mutation go through
// Mutate, Update and Invalidate.
//
// Every key carries a generation. Any write bumps it, and a fetch that
// completes for an older generation is dropped, so an optimistic value is
// never overwritten by a response that was already in flight.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrDisabled is returned when reading with a disabled Key.
	ErrDisabled = errors.New("cache: query disabled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cache: closed")
	// ErrNoData is returned by Update when nothing is cached for the key.
	ErrNoData = errors.New("cache: no data")
)

const (
	DefaultDedupingInterval = 2 * time.Second
	DefaultCapacity         = 128
)

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Recorder receives cache telemetry. *metrics.Collector implements it.
type Recorder interface {
	CacheHit(resource string)
	CacheMiss(resource string)
	CacheFetch(resource string, err error)
	CacheDiscard(resource string)
	SubscriptionOpened()
	SubscriptionClosed()
}

// Options configure a Cache. The zero value is usable.
type Options struct {
	// DedupingInterval is how long fetched data counts as fresh. Reads within
	// the window are served from cache. Zero means DefaultDedupingInterval,
	// negative means data is always stale.
	DedupingInterval time.Duration
	// RevalidateOnFocus makes Focus refetch stale subscribed keys.
	RevalidateOnFocus bool
	// Capacity bounds the number of unsubscribed keys kept. Subscribed keys
	// are held outside the bound. Zero means DefaultCapacity.
	Capacity int
	Logger   *slog.Logger
	Metrics  Recorder
	// Now overrides the clock in tests.
	Now func() time.Time
}

// State is what a subscriber sees for a key.
type State struct {
	Data         any
	Err          error
	IsLoading    bool
	IsValidating bool
	UpdatedAt    time.Time
}

type entry struct {
	key        Key
	data       any
	hasData    bool
	err        error
	updatedAt  time.Time
	generation uint64
	validating bool
	fetcher    Fetcher
}

func (e *entry) state() State {
	return State{
		Data:         e.data,
		Err:          e.err,
		IsLoading:    e.validating && !e.hasData,
		IsValidating: e.validating,
		UpdatedAt:    e.updatedAt,
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	dedup   time.Duration
	focus   bool
	now     func() time.Time
	logger  *slog.Logger
	metrics Recorder

	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	// live holds subscribed entries so eviction never drops what a screen shows.
	live    map[string]*entry
	subs    map[string]map[*Subscription]struct{}
	nextGen uint64
	closed  bool

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache.
func New(opts Options) (*Cache, error) {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	dedup := opts.DedupingInterval
	if dedup == 0 {
		dedup = DefaultDedupingInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rec Recorder = nopRecorder{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		dedup:   dedup,
		focus:   opts.RevalidateOnFocus,
		now:     now,
		logger:  logger,
		metrics: rec,
		entries: entries,
		live:    make(map[string]*entry),
		subs:    make(map[string]map[*Subscription]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Fetch returns fresh cached data for key, or fetches it. Concurrent calls
// for the same key share one fetch.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	if !key.Enabled() || fetch == nil {
		return nil, ErrDisabled
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	e.fetcher = fetch
	if !c.staleLocked(e) {
		data := e.data
		c.mu.Unlock()
		c.metrics.CacheHit(key.Resource())
		return data, nil
	}
	c.mu.Unlock()

	c.metrics.CacheMiss(key.Resource())
	return c.revalidate(ctx, key, fetch)
}

// Subscribe registers interest in key. The current state is delivered
// immediately and the key is revalidated when it is missing or stale.
// A disabled key yields an inert subscription that never fetches.
func (c *Cache) Subscribe(key Key, fetch Fetcher) *Subscription {
	if !key.Enabled() || fetch == nil {
		return &Subscription{}
	}
	k := key.String()
	s := &Subscription{cache: c, key: k, updates: make(chan State, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &Subscription{}
	}
	e := c.entryLocked(key)
	e.fetcher = fetch
	if c.subs[k] == nil {
		c.subs[k] = make(map[*Subscription]struct{})
	}
	c.subs[k][s] = struct{}{}
	c.live[k] = e
	c.entries.Remove(k)

	hasData := e.hasData
	gen := e.generation
	// A flight already running for this generation covers this subscriber.
	start := c.staleLocked(e) && !e.validating
	if start {
		e.validating = true
		c.notifyLocked(k, e)
	} else {
		s.deliver(e.state())
	}
	c.mu.Unlock()

	c.metrics.SubscriptionOpened()
	if hasData {
		c.metrics.CacheHit(key.Resource())
	} else {
		c.metrics.CacheMiss(key.Resource())
	}
	if start {
		c.goFlight(key, gen, fetch)
	}
	return s
}

// Mutate writes data for key and broadcasts it. With revalidate set, the key
// is then refetched and Mutate returns the fetch error, if any.
func (c *Cache) Mutate(ctx context.Context, key Key, data any, revalidate bool) error {
	return c.write(ctx, key, revalidate, func(any, bool) (any, error) {
		return data, nil
	})
}

// Update is Mutate with a function of the current data. It returns ErrNoData
// and leaves the key untouched when nothing is cached.
func (c *Cache) Update(ctx context.Context, key Key, fn func(current any) any, revalidate bool) error {
	return c.write(ctx, key, revalidate, func(current any, ok bool) (any, error) {
		if !ok {
			return nil, ErrNoData
		}
		return fn(current), nil
	})
}

func (c *Cache) write(ctx context.Context, key Key, revalidate bool, next func(current any, ok bool) (any, error)) error {
	if !key.Enabled() {
		return ErrDisabled
	}
	k := key.String()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	var current any
	e, ok := c.lookupLocked(k)
	hasData := ok && e.hasData
	if hasData {
		current = e.data
	}
	data, err := next(current, hasData)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	e = c.entryLocked(key)
	e.generation = c.bumpLocked()
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = c.now()
	e.validating = false
	fetch := e.fetcher
	c.notifyLocked(k, e)
	c.mu.Unlock()

	if revalidate && fetch != nil {
		_, err := c.revalidate(ctx, key, fetch)
		return err
	}
	return nil
}

// Invalidate marks key stale. A subscribed key is refetched right away and
// the fetch error is returned; otherwise the next read refetches.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	if !key.Enabled() {
		return ErrDisabled
	}
	k := key.String()

	c.mu.Lock()
	e, ok := c.lookupLocked(k)
	if !ok || c.closed {
		c.mu.Unlock()
		return nil
	}
	e.generation = c.bumpLocked()
	e.updatedAt = time.Time{}
	e.validating = false
	fetch := e.fetcher
	active := len(c.subs[k]) > 0
	c.mu.Unlock()

	if !active || fetch == nil {
		return nil
	}
	_, err := c.revalidate(ctx, key, fetch)
	return err
}

// Focus signals that the application regained focus. It only revalidates
// when Options.RevalidateOnFocus is set.
func (c *Cache) Focus() {
	if !c.focus {
		return
	}

	type job struct {
		key   Key
		gen   uint64
		fetch Fetcher
	}
	var jobs []job

	c.mu.Lock()
	for k := range c.subs {
		e, ok := c.live[k]
		if !ok || e.fetcher == nil || e.validating || !c.staleLocked(e) {
			continue
		}
		e.validating = true
		c.notifyLocked(k, e)
		jobs = append(jobs, job{key: e.key, gen: e.generation, fetch: e.fetcher})
	}
	c.mu.Unlock()

	for _, j := range jobs {
		c.goFlight(j.key, j.gen, j.fetch)
	}
}

// Clear drops all cached data. Subscribers stay registered and see an empty
// state; in-flight fetches are discarded on completion.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	for k, e := range c.live {
		e.generation = c.bumpLocked()
		e.data = nil
		e.hasData = false
		e.err = nil
		e.updatedAt = time.Time{}
		e.validating = false
		c.notifyLocked(k, e)
	}
	c.logger.Debug("Cache cleared", "subscribed_keys", len(c.live))
}

// Close cancels background fetches, waits for them and closes every
// subscription.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, subs := range c.subs {
		for s := range subs {
			s.closeLocked()
			c.metrics.SubscriptionClosed()
		}
		delete(c.subs, k)
	}
}

// goFlight fetches in the background for a generation captured by the caller
// under the lock, so a write landing before the goroutine runs still wins.
func (c *Cache) goFlight(key Key, gen uint64, fetch Fetcher) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.flight(c.ctx, key, gen, fetch); err != nil {
			c.logger.Debug("Revalidation failed", "key", key.String(), "error", err)
		}
	}()
}

func (c *Cache) revalidate(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	k := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	gen := e.generation
	if !e.validating {
		e.validating = true
		c.notifyLocked(k, e)
	}
	c.mu.Unlock()

	return c.flight(ctx, key, gen, fetch)
}

// flight runs fetch for one generation, shared by every caller asking for
// the same key and generation. The fetch runs on the cache context so one
// caller giving up does not fail the others.
func (c *Cache) flight(ctx context.Context, key Key, gen uint64, fetch Fetcher) (any, error) {
	ch := c.group.DoChan(key.String()+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		data, err := fetch(c.ctx)
		c.metrics.CacheFetch(key.Resource(), err)
		c.commit(key, gen, data, err)
		return data, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) commit(key Key, gen uint64, data any, err error) {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(k)
	if !ok || e.generation != gen {
		c.logger.Debug("Discarding superseded fetch", "key", k, "generation", gen)
		c.metrics.CacheDiscard(key.Resource())
		return
	}

	e.validating = false
	if err != nil {
		// Keep the last good data next to the error.
		e.err = err
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.updatedAt = c.now()
	}
	c.notifyLocked(k, e)
}

func (c *Cache) lookupLocked(k string) (*entry, bool) {
	if e, ok := c.live[k]; ok {
		return e, true
	}
	return c.entries.Get(k)
}

// entryLocked returns the entry for key, creating it when missing. Only
// unsubscribed entries live in the LRU; a lookup there refreshes recency.
func (c *Cache) entryLocked(key Key) *entry {
	k := key.String()
	if e, ok := c.live[k]; ok {
		return e
	}
	if e, ok := c.entries.Get(k); ok {
		return e
	}
	e := &entry{key: key, generation: c.bumpLocked()}
	c.entries.Add(k, e)
	return e
}

// Generations come from one counter so a key dropped and recreated never
// reuses a generation an old fetch still holds.
func (c *Cache) bumpLocked() uint64 {
	c.nextGen++
	return c.nextGen
}

func (c *Cache) staleLocked(e *entry) bool {
	if !e.hasData || e.updatedAt.IsZero() {
		return true
	}
	return c.now().Sub(e.updatedAt) >= c.dedup
}

func (c *Cache) notifyLocked(k string, e *entry) {
	st := e.state()
	for s := range c.subs[k] {
		s.deliver(st)
	}
}

func (c *Cache) unsubscribe(s *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return
	}
	subs := c.subs[s.key]
	delete(subs, s)
	if len(subs) == 0 {
		delete(c.subs, s.key)
		if e, ok := c.live[s.key]; ok {
			delete(c.live, s.key)
			c.entries.Add(s.key, e)
		}
	}
	s.closeLocked()
	c.metrics.SubscriptionClosed()
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)          {}
func (nopRecorder) CacheMiss(string)         {}
func (nopRecorder) CacheFetch(string, error) {}
func (nopRecorder) CacheDiscard(string)      {}
func (nopRecorder) SubscriptionOpened()      {}
func (nopRecorder) SubscriptionClosed()      {}
