// Package app is the application context: it builds every client component
// once per process and exposes the screen actions. Actions call a service and
// then bring the shared cache up to date, so views never touch the cache
// write path themselves.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/config"
	"github.com/mmynk/kotconnect/internal/metrics"
	"github.com/mmynk/kotconnect/internal/middleware"
	"github.com/mmynk/kotconnect/internal/service"
	"github.com/mmynk/kotconnect/internal/session"
	"github.com/mmynk/kotconnect/internal/storage"
	"github.com/mmynk/kotconnect/internal/storage/secure"
	"github.com/mmynk/kotconnect/internal/storage/sqlite"
)

var (
	// ErrNotLoggedIn is returned by actions that need a token.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrNoDorm is returned by dorm-scoped actions when the user has no dorm.
	ErrNoDorm = errors.New("not a member of a dorm")
	// ErrNotOwnShare is returned when marking someone else's share as paid.
	ErrNotOwnShare = errors.New("you can only mark your own share as paid")
)

// App holds the process-wide client components.
type App struct {
	Config  *config.Config
	Session *session.Store
	Client  *api.Client
	Cache   *cache.Cache
	Metrics *metrics.Collector

	Users    *service.UserService
	Dorms    *service.DormService
	Events   *service.EventService
	Tasks    *service.TaskService
	Expenses *service.ExpenseService

	kv     storage.KeyValueStore
	logger *slog.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	logger *slog.Logger
	kv     storage.KeyValueStore
	base   http.RoundTripper
}

// WithLogger sets the logger for every component. Default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithKeyValueStore replaces the store chosen from the config. App.Close
// closes it.
func WithKeyValueStore(kv storage.KeyValueStore) Option {
	return func(o *options) { o.kv = kv }
}

// WithTransport sets the innermost HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// New builds the application context and restores the persisted session.
// A restored token is kept as is; the backend decides whether it is valid.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	kv := o.kv
	if kv == nil {
		var err error
		if kv, err = openStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	collector := metrics.NewCollector("kotconnect")

	transport := middleware.Chain(o.base,
		middleware.RequestID(),
		middleware.Logging(o.logger),
		middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit, cfg.RateBurst)),
		middleware.Instrument(collector),
	)

	baseURL := api.ResolveBaseURL(cfg.Environment())
	client, err := api.New(api.Config{
		BaseURL:   baseURL,
		Transport: transport,
		Timeout:   cfg.Timeout,
		Logger:    o.logger,
	})
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	c, err := cache.New(cache.Options{
		DedupingInterval:  cfg.DedupingInterval,
		RevalidateOnFocus: cfg.RevalidateOnFocus,
		Capacity:          cfg.CacheCapacity,
		Logger:            o.logger,
		Metrics:           collector,
	})
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	a := &App{
		Config:   cfg,
		Session:  session.New(kv, o.logger),
		Client:   client,
		Cache:    c,
		Metrics:  collector,
		Users:    service.NewUserService(client),
		Dorms:    service.NewDormService(client),
		Events:   service.NewEventService(client),
		Tasks:    service.NewTaskService(client),
		Expenses: service.NewExpenseService(client),
		kv:       kv,
		logger:   o.logger,
	}

	a.Session.Load(ctx)

	o.logger.Info("Client ready",
		"base_url", baseURL,
		"platform", cfg.Platform,
		"encrypted_store", cfg.Encrypted(),
		"state", a.Session.State(),
	)
	return a, nil
}

// openStore picks the store variant: plaintext SQLite on web, otherwise the
// same database with every value sealed.
func openStore(ctx context.Context, cfg *config.Config) (storage.KeyValueStore, error) {
	backing, err := sqlite.New(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if !cfg.Encrypted() {
		return backing, nil
	}

	passphrase := cfg.Passphrase
	if passphrase == "" {
		if passphrase, err = secure.LoadOrCreateKeyFile(cfg.KeyFilePath()); err != nil {
			backing.Close()
			return nil, err
		}
	}
	store, err := secure.Open(ctx, backing, passphrase)
	if err != nil {
		backing.Close()
		return nil, fmt.Errorf("open secure store: %w", err)
	}
	return store, nil
}

// MetricsHandler serves the client metrics in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}

// ServeMetrics serves MetricsHandler on addr until ctx is done.
func (a *App) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Metrics server starting", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Focus forwards an application focus event to the cache.
func (a *App) Focus() {
	a.Cache.Focus()
}

// Close stops background fetches and closes the session store.
func (a *App) Close() error {
	a.Cache.Close()
	if err := a.kv.Close(); err != nil {
		return fmt.Errorf("close session store: %w", err)
	}
	return nil
}

// token returns the session token or ErrNotLoggedIn.
func (a *App) token() (string, error) {
	if t := a.Session.Token(); t != "" {
		return t, nil
	}
	return "", ErrNotLoggedIn
}

// key scopes a cache key to the session: logged out, every key is disabled.
func (a *App) key(parts ...any) cache.Key {
	if a.Session.Token() == "" {
		return nil
	}
	return cache.K(parts...)
}

// logStorageError reports a session write that failed after the backend
// call succeeded. The in-memory session is already current.
func (a *App) logStorageError(op string, err error) {
	if err != nil {
		a.logger.Error("Failed to persist session", "op", op, "error", err)
	}
}
