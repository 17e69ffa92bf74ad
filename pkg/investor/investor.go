// Package investor wires the engine together: credentials, the API client,
// the persistent cache, the three orchestrators, search and telemetry.
// It is the single owner of every service instance.
package investor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/illmade-knight/go-investor/pkg/auth"
	"github.com/illmade-knight/go-investor/pkg/cache"
	"github.com/illmade-knight/go-investor/pkg/config"
	"github.com/illmade-knight/go-investor/pkg/orchestrator"
	"github.com/illmade-knight/go-investor/pkg/remote"
	"github.com/illmade-knight/go-investor/pkg/suggest"
	"github.com/illmade-knight/go-investor/pkg/telemetry"
	"github.com/illmade-knight/go-investor/pkg/types"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const (
	// DefaultOverviewCapacity is how many recently viewed overviews are kept.
	DefaultOverviewCapacity = 20

	credentialKey  = "investor:credential"
	redisKeyPrefix = "investor:cache:"
	registerFile   = "register.db"
	slotsDir       = "slots"
	stopTimeout    = 10 * time.Second
)

type options struct {
	tokens           auth.CredentialStore
	largeStore       cache.Store
	publisher        telemetry.Publisher
	overviewCapacity int
	clock            func() time.Time
	clientOptions    []option.ClientOption
}

// Option customises New.
type Option func(*options)

// WithCredentialStore replaces the configured credential store.
func WithCredentialStore(s auth.CredentialStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithLargeStore replaces the backend for slots too big for the register.
// The App does not close it.
func WithLargeStore(s cache.Store) Option {
	return func(o *options) { o.largeStore = s }
}

// WithPublisher enables telemetry through p instead of Pub/Sub.
func WithPublisher(p telemetry.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithOverviewCapacity bounds the in-memory overview cache.
func WithOverviewCapacity(n int) Option {
	return func(o *options) { o.overviewCapacity = n }
}

// WithClock sets the clock used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithClientOptions is passed to every Google Cloud client New creates.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// App owns the engine's services.
type App struct {
	logger zerolog.Logger

	tokens    auth.CredentialStore
	client    *remote.Client
	store     cache.Store
	stockList *orchestrator.StockList
	home      *orchestrator.Home
	overview  *orchestrator.Overview
	search    *suggest.Search

	publisher telemetry.Publisher
	subs      []*orchestrator.Subscription
	closers   []io.Closer
}

// New builds an App from cfg. Anything opened before a failure is closed again.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	o := options{overviewCapacity: DefaultOverviewCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: logger.With().Str("component", "App").Logger()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.tokens, err = a.credentialStore(ctx, cfg, o, logger); err != nil {
		return nil, err
	}

	a.client, err = remote.NewClient(&remote.Config{
		BaseURL:         cfg.BaseURL,
		APIVersion:      cfg.APIVersion,
		RequestTimeout:  cfg.RequestTimeout,
		ResourceTimeout: cfg.ResourceTimeout,
	}, a.tokens, logger)
	if err != nil {
		return nil, err
	}

	if a.store, err = a.persistentStore(ctx, cfg, o, logger); err != nil {
		return nil, err
	}
	recent, err := cache.NewLRUStore(o.overviewCapacity)
	if err != nil {
		return nil, err
	}

	var entryOpts []cache.EntryOption
	if o.clock != nil {
		entryOpts = append(entryOpts, cache.WithClock(o.clock))
	}
	if a.stockList, err = orchestrator.NewStockList(a.client, a.store, cfg.DefaultCountry, logger, entryOpts...); err != nil {
		return nil, err
	}
	if a.home, err = orchestrator.NewHome(a.client, a.store, logger, entryOpts...); err != nil {
		return nil, err
	}
	if a.overview, err = orchestrator.NewOverview(a.client, recent, logger, entryOpts...); err != nil {
		return nil, err
	}
	a.search = suggest.NewSearch(a.stockList)

	if err = a.attachTelemetry(ctx, cfg, o, logger); err != nil {
		return nil, err
	}

	a.logger.Info().Str("cache_dir", cfg.CacheDir).Bool("telemetry", a.publisher != nil).Msg("Investor engine ready.")
	return a, nil
}

func (a *App) credentialStore(ctx context.Context, cfg *config.Config, o options, logger zerolog.Logger) (auth.CredentialStore, error) {
	if o.tokens != nil {
		return o.tokens, nil
	}
	if cfg.Redis.Addr == "" {
		return auth.NewMemoryCredentialStore(cfg.AuthToken), nil
	}
	store, err := auth.NewRedisCredentialStore(ctx, &auth.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Key:      credentialKey,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	if cfg.AuthToken != "" {
		if err := store.SetToken(ctx, cfg.AuthToken); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// persistentStore puts the SQLite register in front of the large-slot
// backend: Redis, GCS or Firestore when configured, otherwise files.
func (a *App) persistentStore(ctx context.Context, cfg *config.Config, o options, logger zerolog.Logger) (cache.Store, error) {
	register, err := cache.OpenSQLiteStore(filepath.Join(cfg.CacheDir, registerFile), cfg.RegisterMaxBytes, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, register)

	large := o.largeStore
	if large == nil {
		if large, err = a.largeBackend(ctx, cfg, o, logger); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, large)
	}
	return cache.NewSizeRoutedStore(register, large, register.MaxBytes()), nil
}

func (a *App) largeBackend(ctx context.Context, cfg *config.Config, o options, logger zerolog.Logger) (cache.Store, error) {
	switch {
	case cfg.Redis.Addr != "":
		return cache.NewRedisStore(ctx, &cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: redisKeyPrefix,
		}, logger)
	case cfg.GCS.Bucket != "":
		client, err := storage.NewClient(ctx, o.clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a.closers = append(a.closers, client)
		return cache.NewGCSStore(cache.NewGCSClientAdapter(client), &cache.GCSConfig{
			BucketName:   cfg.GCS.Bucket,
			ObjectPrefix: cfg.GCS.Prefix,
		}, logger)
	case cfg.Firestore.ProjectID != "":
		client, err := firestore.NewClient(ctx, cfg.Firestore.ProjectID, o.clientOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		a.closers = append(a.closers, client)
		return cache.NewFirestoreStore(&cache.FirestoreConfig{
			ProjectID:      cfg.Firestore.ProjectID,
			CollectionName: cfg.Firestore.Collection,
		}, client, logger)
	default:
		return cache.NewFileStore(filepath.Join(cfg.CacheDir, slotsDir), logger)
	}
}

func (a *App) attachTelemetry(ctx context.Context, cfg *config.Config, o options, logger zerolog.Logger) error {
	pub := o.publisher
	if pub == nil && cfg.PubSub.TopicID != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, o.clientOptions...)
		if err != nil {
			return fmt.Errorf("failed to create pubsub client: %w", err)
		}
		a.closers = append(a.closers, client)
		if pub, err = telemetry.NewGooglePublisher(ctx, client, cfg.PubSub.TopicID, logger); err != nil {
			return err
		}
	}
	if pub == nil {
		return nil
	}
	a.publisher = pub
	a.subs = append(a.subs,
		telemetry.Attach[types.StockList](a.stockList, pub, logger),
		telemetry.Attach[types.HomeResponse](a.home, pub, logger),
		telemetry.Attach[types.StockOverview](a.overview, pub, logger),
	)
	return nil
}

func (a *App) StockList() *orchestrator.StockList { return a.stockList }
func (a *App) Home() *orchestrator.Home { return a.home }
func (a *App) Overview() *orchestrator.Overview { return a.overview }
func (a *App) Search() *suggest.Search { return a.search }
func (a *App) Client() *remote.Client { return a.client }

// SignIn stores the bearer token used for every API call.
func (a *App) SignIn(ctx context.Context, token string) error {
	return a.tokens.SetToken(ctx, token)
}

// SignedIn reports whether a token is available.
func (a *App) SignedIn(ctx context.Context) bool {
	_, err := a.tokens.Token(ctx)
	return err == nil
}

// Subscription fetches the user's privilege level and monthly view allowance.
func (a *App) Subscription(ctx context.Context) (types.UserSubscription, error) {
	return a.client.FetchSubscription(ctx)
}

// Logout forgets the token and every cached slot, so the next user of the
// device starts cold. All steps run even if one fails.
func (a *App) Logout(ctx context.Context) error {
	var errs []error
	if err := a.tokens.ClearToken(ctx); err != nil && !errors.Is(err, auth.ErrReadOnly) {
		errs = append(errs, fmt.Errorf("failed to clear token: %w", err))
	}
	a.search.Clear()
	if err := a.stockList.ClearAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.home.ClearAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.overview.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.overview.ClearAll(ctx); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info().Msg("Signed out and cleared cached data.")
	return errors.Join(errs...)
}

// Close detaches telemetry, flushes the publisher and closes everything New opened.
func (a *App) Close() error {
	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	var errs []error
	if a.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		if err := a.publisher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop publisher: %w", err))
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
