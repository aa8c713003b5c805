// Package achievement reconciles the achievement catalog, progress counters and unlock
// records into a single view and drives the server-side re-evaluation.
package achievement

import (
	"context"
	"errors"
	"sync"

	"foundry/internal/domain"
	"foundry/internal/mutation"
	"foundry/internal/query"
)

var (
	DefinitionsKey = query.NewKey("achievements", "definitions")
	ProgressKey    = query.NewKey("achievements", "progress")
	UnlockedKey    = query.NewKey("achievements", "unlocked")
)

// Source is the remote achievement API.
type Source interface {
	Definitions(ctx context.Context) ([]domain.AchievementDefinition, error)
	Progress(ctx context.Context) ([]domain.AchievementProgress, error)
	Unlocked(ctx context.Context) ([]domain.Achievement, error)
	Check(ctx context.Context) (domain.CheckAchievementsResponse, error)
}

type inputs struct {
	definitions, progress, unlocked uint64
}

type Reconciler struct {
	cache *query.Cache
	src   Source
	exec  *mutation.Executor

	mu        sync.Mutex
	memoKey   inputs
	memoBoard Board
	memoOK    bool
}

func NewReconciler(cache *query.Cache, src Source, exec *mutation.Executor) *Reconciler {
	return &Reconciler{cache: cache, src: src, exec: exec}
}

// Board loads the three collections through the cache, concurrently, and derives the
// board. The derivation is memoized on the cache versions of its inputs. Failed
// collections contribute their last-known-good data (or nothing) and their errors are
// joined into the returned error.
func (r *Reconciler) Board(ctx context.Context) (Board, error) {
	var (
		wg                         sync.WaitGroup
		defsErr, progErr, unlocErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		_, defsErr = query.Get(ctx, r.cache, DefinitionsKey, r.src.Definitions)
	}()
	go func() {
		defer wg.Done()
		_, progErr = query.Get(ctx, r.cache, ProgressKey, r.src.Progress)
	}()
	go func() {
		defer wg.Done()
		_, unlocErr = query.Get(ctx, r.cache, UnlockedKey, r.src.Unlocked)
	}()
	wg.Wait()

	defs, dv := peek[[]domain.AchievementDefinition](r.cache, DefinitionsKey)
	progress, pv := peek[[]domain.AchievementProgress](r.cache, ProgressKey)
	unlocked, uv := peek[[]domain.Achievement](r.cache, UnlockedKey)
	board := r.derive(inputs{dv, pv, uv}, defs, progress, unlocked)
	return board, errors.Join(defsErr, progErr, unlocErr)
}

// CheckProgress asks the service to evaluate achievements. Unlock records and progress
// counters are invalidated only when something new was unlocked.
func (r *Reconciler) CheckProgress(ctx context.Context) (domain.CheckAchievementsResponse, error) {
	return mutation.Run(ctx, r.exec, "check achievements", r.src.Check,
		mutation.InvalidateIf(hasNewUnlocks, UnlockedKey, ProgressKey))
}

func hasNewUnlocks(resp domain.CheckAchievementsResponse) bool {
	return resp.TotalNew > 0 || len(resp.NewAchievements) > 0
}

func (r *Reconciler) derive(in inputs, defs []domain.AchievementDefinition, progress []domain.AchievementProgress, unlocked []domain.Achievement) Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.memoOK || r.memoKey != in {
		r.memoBoard = NewBoard(Derive(defs, progress, unlocked))
		r.memoKey = in
		r.memoOK = true
	}
	return r.memoBoard.clone()
}

func peek[T any](cache *query.Cache, key query.Key) (T, uint64) {
	var zero T
	e, ok := cache.Peek(key)
	if !ok || !e.HasData {
		return zero, 0
	}
	v, _ := e.Data.(T)
	return v, e.Version
}
