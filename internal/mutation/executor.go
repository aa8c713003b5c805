// Package mutation runs writes against the remote service and, once the service has
// confirmed them, invalidates the cached reads that depend on them.
package mutation

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"foundry/internal/query"
)

// Cache is the part of the query cache a mutation may touch.
type Cache interface {
	Invalidate(prefix query.Key) int
	Clear() int
}

// Continuation runs after the operation succeeded, in the order given to Run.
type Continuation[T any] func(ctx context.Context, result T, cache Cache) error

type Executor struct {
	cache Cache
	log   logrus.FieldLogger
}

func New(cache Cache, log logrus.FieldLogger) *Executor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Executor{cache: cache, log: log.WithField("component", "mutation")}
}

// Exec runs op and invalidates every prefix in invalidate once op succeeds. A failed op
// invalidates nothing and its error is returned unchanged.
func (x *Executor) Exec(ctx context.Context, name string, op func(context.Context) error, invalidate ...query.Key) error {
	_, err := Run(ctx, x, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, Invalidate[struct{}](invalidate...))
	return err
}

// Run executes op and then each continuation in order. Continuations only run when op
// succeeded. The operation's error is returned unchanged; a continuation error is wrapped
// and returned together with the successful result.
func Run[T any](ctx context.Context, x *Executor, name string, op func(context.Context) (T, error), then ...Continuation[T]) (T, error) {
	log := x.log.WithField("mutation", name)
	result, err := op(ctx)
	if err != nil {
		log.WithError(err).Info("mutation failed")
		return result, err
	}
	for _, next := range then {
		if err := next(ctx, result, x.cache); err != nil {
			log.WithError(err).Warn("post-success step failed")
			return result, fmt.Errorf("%s succeeded but follow-up failed: %w", name, err)
		}
	}
	log.Debug("mutation applied")
	return result, nil
}

// Invalidate marks every entry under the given prefixes stale.
func Invalidate[T any](prefixes ...query.Key) Continuation[T] {
	return func(_ context.Context, _ T, cache Cache) error {
		for _, p := range prefixes {
			cache.Invalidate(p)
		}
		return nil
	}
}

// InvalidateIf invalidates the prefixes only when pred accepts the result.
func InvalidateIf[T any](pred func(T) bool, prefixes ...query.Key) Continuation[T] {
	return func(ctx context.Context, result T, cache Cache) error {
		if !pred(result) {
			return nil
		}
		return Invalidate[T](prefixes...)(ctx, result, cache)
	}
}

// EvictAll drops every cache entry.
func EvictAll[T any]() Continuation[T] {
	return func(_ context.Context, _ T, cache Cache) error {
		cache.Clear()
		return nil
	}
}
