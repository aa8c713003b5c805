// Package app wires the session, request pipeline, query cache, mutation executor and
// achievement reconciler into one explicitly constructed client context.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"foundry/internal/achievement"
	"foundry/internal/api"
	"foundry/internal/config"
	"foundry/internal/mutation"
	"foundry/internal/query"
	"foundry/internal/security/secretbox"
	"foundry/internal/session"
	"foundry/internal/session/postgres"
	"foundry/internal/session/sqlite"
)

// credentialLabel binds sealed credentials to their purpose.
const credentialLabel = "foundry/session-credential"

type Options struct {
	Logger logrus.FieldLogger
	// Registerer receives the cache metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	HTTPClient *http.Client
}

// App is the client context. Every consumer shares its cache, so the same key read from
// two places is fetched once.
type App struct {
	Session      *session.Store
	API          *api.Client
	Resources    *api.Resources
	Cache        *query.Cache
	Mutations    *mutation.Executor
	Achievements *achievement.Reconciler

	log     logrus.FieldLogger
	closers []io.Closer
}

// New builds the client context on top of backend. Closers are closed by App.Close.
func New(cfg config.Config, backend session.Backend, opts Options, closers ...io.Closer) (*App, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	store := session.NewStore(backend, log)
	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.RequestTimeout,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		HTTPClient: opts.HTTPClient,
		Logger:     log,
	}, store)
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}
	cache := query.New(
		query.WithLogger(log),
		query.WithMetrics(query.NewMetrics(opts.Registerer)),
		query.WithRevalidateOnRead(cfg.RevalidateOnRead),
	)
	resources := api.NewResources(client)
	exec := mutation.New(cache, log)
	return &App{
		Session:      store,
		API:          client,
		Resources:    resources,
		Cache:        cache,
		Mutations:    exec,
		Achievements: achievement.NewReconciler(cache, resources.Achievements, exec),
		log:          log.WithField("component", "app"),
		closers:      closers,
	}, nil
}

// Open builds the durable session backend selected by cfg and the client context on top of it.
func Open(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	backend, closer, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var closers []io.Closer
	if closer != nil {
		closers = append(closers, closer)
	}
	a, err := New(cfg, backend, opts, closers...)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	return a, nil
}

// OpenBackend returns the credential backend named by cfg.SessionBackend, sealed with
// cfg.SessionKey when one is configured. The closer is nil for the memory backend.
func OpenBackend(ctx context.Context, cfg config.Config) (session.Backend, io.Closer, error) {
	key, err := cfg.SessionKeyBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("session key: %w", err)
	}
	var box *secretbox.Box
	if key != nil {
		if box, err = secretbox.New(key, credentialLabel); err != nil {
			return nil, nil, fmt.Errorf("session key: %w", err)
		}
	}

	var (
		backend session.Backend
		closer  io.Closer
	)
	switch cfg.SessionBackend {
	case "memory":
		backend = session.NewMemory("")
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		backend, closer = st, st
	case "postgres":
		st, err := postgres.Open(ctx, cfg.DatabaseURL, deviceID(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres session store: %w", err)
		}
		backend, closer = st, st
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if box == nil {
		return backend, closer, nil
	}
	return session.Sealed(backend, box), closer, nil
}

func deviceID(cfg config.Config) string {
	if cfg.DeviceID != "" {
		return cfg.DeviceID
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}
	return host
}

// NewLogger returns a text logger at the named level.
func NewLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
