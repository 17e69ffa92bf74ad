// Package orchestrator decides, per resource kind, when to trust the local
// cache, when to go to the network and what to show when the network fails.
package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/illmade-knight/go-investor/pkg/cache"
	"github.com/illmade-knight/go-investor/pkg/errkind"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// State is the published view of one resource. Data and LastError may both
// be set: stale data is shown alongside the error that prevented a refresh.
type State[T any] struct {
	// Key is the cache key the state belongs to.
	Key           string
	Data          T
	HasData       bool
	IsLoading     bool
	LastError     *errkind.Error
	LastFetchedAt time.Time
	// FromCache is set when Data was read from the local cache rather than
	// fetched by the request that published it.
	FromCache bool
	// Stale is set when Data is past its TTL and shown only as a fallback.
	Stale bool
}

// FetchFunc retrieves the live value for key.
type FetchFunc[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Config wires an Orchestrator to its data source and cache slot.
type Config[K comparable, T any] struct {
	// Resource names the kind of data for logs and telemetry.
	Resource string
	Fetch    FetchFunc[K, T]
	Entry    *cache.Entry[T]
	CacheKey func(K) string
	// PersistentKeys are cleared by ClearAll even when this process never
	// touched them.
	PersistentKeys []string
}

// Orchestrator runs the Idle -> Loading -> Success/Failed state machine for
// one resource kind. At most one fetch is in flight; a request for the same
// key joins it and a request for a different key supersedes it.
type Orchestrator[K comparable, T any] struct {
	resource string
	fetch    FetchFunc[K, T]
	entry    *cache.Entry[T]
	cacheKey func(K) string
	logger   zerolog.Logger

	group singleflight.Group

	// notifyMu is held across a state change and its notification so
	// observers see changes in the order they were made.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        State[T]
	gen          uint64
	active       *inflight
	touched      map[string]struct{}
	observers    map[int]Observer[T]
	nextObserver int
}

// inflight is one fetch. Its singleflight key carries the generation, so a
// request arriving after supersession can never join a cancelled fetch that
// is still unwinding.
type inflight struct {
	key   string
	gen   uint64
	group string

	// base outlives supersession and is used for cache reads and writes.
	base   context.Context
	ctx    context.Context
	cancel context.CancelFunc

	// cleared is set under mu when Clear or ClearAll cancels the flight;
	// its result must not be written back.
	cleared bool
}

// New validates cfg and returns an idle orchestrator.
func New[K comparable, T any](cfg Config[K, T], logger zerolog.Logger) (*Orchestrator[K, T], error) {
	if cfg.Fetch == nil {
		return nil, errors.New("orchestrator requires a fetch function")
	}
	if cfg.Entry == nil {
		return nil, errors.New("orchestrator requires a cache entry")
	}
	if cfg.CacheKey == nil {
		return nil, errors.New("orchestrator requires a cache key function")
	}
	touched := make(map[string]struct{}, len(cfg.PersistentKeys))
	for _, k := range cfg.PersistentKeys {
		touched[k] = struct{}{}
	}
	return &Orchestrator[K, T]{
		resource:  cfg.Resource,
		fetch:     cfg.Fetch,
		entry:     cfg.Entry,
		cacheKey:  cfg.CacheKey,
		logger:    logger.With().Str("component", "Orchestrator").Str("resource", cfg.Resource).Logger(),
		touched:   touched,
		observers: make(map[int]Observer[T]),
	}, nil
}

// Resource returns the configured resource name.
func (o *Orchestrator[K, T]) Resource() string {
	return o.resource
}

// State returns a snapshot of the current state.
func (o *Orchestrator[K, T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Initialize loads key, preferring a fresh cache slot over the network. It is
// a no-op when the state already holds data for key, and joins the fetch
// already in flight for key if there is one.
func (o *Orchestrator[K, T]) Initialize(ctx context.Context, key K) State[T] {
	return o.run(ctx, key, true)
}

// Refresh always fetches key from the network, or joins the fetch already in
// flight for key. On failure any data already published is kept and the
// error is published next to it.
func (o *Orchestrator[K, T]) Refresh(ctx context.Context, key K) State[T] {
	return o.run(ctx, key, false)
}

// Clear removes key from the cache and, if it is the current key, resets
// the state. A fetch in flight for key is cancelled and its result dropped.
func (o *Orchestrator[K, T]) Clear(ctx context.Context, key K) error {
	ck := o.cacheKey(key)
	o.reset(func(current string) bool { return current == ck })
	return o.entry.Clear(ctx, ck)
}

// ClearAll removes every slot this orchestrator has touched and resets the state.
func (o *Orchestrator[K, T]) ClearAll(ctx context.Context) error {
	o.reset(func(string) bool { return true })

	o.mu.Lock()
	keys := make([]string, 0, len(o.touched))
	for k := range o.touched {
		keys = append(keys, k)
	}
	o.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := o.entry.Clear(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator[K, T]) reset(match func(current string) bool) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if o.active != nil && match(o.active.key) {
		o.active.cleared = true
		o.active.cancel()
		o.active = nil
		o.gen++
	}
	if !match(o.state.Key) {
		o.mu.Unlock()
		return
	}
	o.state = State[T]{}
	snapshot := o.state
	o.mu.Unlock()

	o.notify(snapshot)
}

// run claims the flight for key synchronously, so requests take effect in
// the order they were made, then waits for it. The flight runs on a context
// detached from the caller: a caller that gives up does not cancel the fetch
// others are waiting on, and gets the current state instead.
func (o *Orchestrator[K, T]) run(ctx context.Context, key K, useCache bool) State[T] {
	ck := o.cacheKey(key)

	o.mu.Lock()
	if useCache && o.state.Key == ck && o.state.HasData && !o.state.IsLoading {
		s := o.state
		o.mu.Unlock()
		o.logger.Debug().Str("key", ck).Msg("Already initialized.")
		return s
	}
	f := o.active
	if f != nil && f.key == ck {
		o.logger.Debug().Str("key", ck).Msg("Joining in-flight request.")
	} else {
		f = o.startLocked(ctx, ck)
	}
	// Called under mu: while f is active its singleflight entry exists, so a
	// joiner always lands on f.
	ch := o.group.DoChan(f.group, func() (any, error) {
		return o.execute(f, key, useCache), nil
	})
	o.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val.(State[T])
	case <-ctx.Done():
		return o.State()
	}
}

// startLocked supersedes any active flight and makes a new one for ck.
// State belonging to another key is dropped.
func (o *Orchestrator[K, T]) startLocked(ctx context.Context, ck string) *inflight {
	if o.active != nil {
		o.logger.Debug().Str("previous", o.active.key).Str("key", ck).Msg("Superseding in-flight request.")
		o.active.cancel()
	}
	o.gen++
	base := context.WithoutCancel(ctx)
	fetchCtx, cancel := context.WithCancel(base)
	f := &inflight{
		key:    ck,
		gen:    o.gen,
		group:  ck + "#" + strconv.FormatUint(o.gen, 10),
		base:   base,
		ctx:    fetchCtx,
		cancel: cancel,
	}
	o.active = f
	o.touched[ck] = struct{}{}
	if o.state.Key != ck {
		o.state = State[T]{Key: ck}
	}
	return f
}

// finish releases f if it is still the active flight.
func (o *Orchestrator[K, T]) finish(f *inflight) {
	o.mu.Lock()
	if o.active == f {
		o.active = nil
	}
	o.mu.Unlock()
	f.cancel()
}

func (o *Orchestrator[K, T]) execute(f *inflight, key K, useCache bool) State[T] {
	defer o.finish(f)

	if useCache {
		if data, storedAt, ok := o.entry.ReadIfValid(f.base, f.key); ok {
			o.logger.Debug().Str("key", f.key).Time("stored_at", storedAt).Msg("Serving from cache.")
			return o.publish(f, State[T]{
				Key:           f.key,
				Data:          data,
				HasData:       true,
				LastFetchedAt: storedAt,
				FromCache:     true,
			})
		}
	}

	o.setLoading(f)
	data, err := o.fetch(f.ctx, key)
	if err != nil {
		return o.fail(f, err)
	}

	if o.wasCleared(f) {
		return o.publish(f, State[T]{})
	}
	fetchedAt, werr := o.entry.Write(f.base, f.key, data)
	if werr != nil {
		o.logger.Warn().Err(werr).Str("key", f.key).Msg("Write-through failed, serving uncached data.")
		fetchedAt = o.entry.Now()
	}
	return o.publish(f, State[T]{
		Key:           f.key,
		Data:          data,
		HasData:       true,
		LastFetchedAt: fetchedAt,
	})
}

func (o *Orchestrator[K, T]) wasCleared(f *inflight) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return f.cleared
}

// setLoading publishes the loading state unless f has been superseded.
func (o *Orchestrator[K, T]) setLoading(f *inflight) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if f.gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.state.IsLoading = true
	o.state.LastError = nil
	snapshot := o.state
	o.mu.Unlock()

	o.notify(snapshot)
}

func (o *Orchestrator[K, T]) fail(f *inflight, err error) State[T] {
	kerr := errkind.From(err)
	o.logger.Warn().Err(err).Str("key", f.key).Str("kind", kerr.Kind.String()).Msg("Fetch failed.")

	// Read the fallback before taking the lock; it is only used if the
	// state holds nothing better.
	stale, storedAt, staleOK := o.entry.ReadBestEffort(f.base, f.key)

	o.mu.Lock()
	current := o.state
	o.mu.Unlock()

	next := current
	next.Key = f.key
	next.IsLoading = false
	next.LastError = kerr
	if !current.HasData && staleOK {
		o.logger.Warn().Str("key", f.key).Time("stored_at", storedAt).Msg("Falling back to stale cache.")
		next.Data = stale
		next.HasData = true
		next.LastFetchedAt = storedAt
		next.FromCache = true
		next.Stale = !o.entry.IsValid(f.base, f.key)
	}
	return o.publish(f, next)
}

// publish installs s unless a newer request has claimed the orchestrator,
// in which case the current state is returned untouched.
func (o *Orchestrator[K, T]) publish(f *inflight, s State[T]) State[T] {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if f.gen != o.gen {
		current := o.state
		o.mu.Unlock()
		o.logger.Debug().Str("key", s.Key).Msg("Dropping superseded result.")
		return current
	}
	if o.active == f {
		o.active = nil
	}
	o.state = s
	o.mu.Unlock()

	o.notify(s)
	return s
}
