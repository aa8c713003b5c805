package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/query"
)

type recordingCache struct {
	calls []string
}

func (r *recordingCache) Invalidate(prefix query.Key) int {
	r.calls = append(r.calls, "invalidate:"+prefix.String())
	return 1
}

func (r *recordingCache) Clear() int {
	r.calls = append(r.calls, "clear")
	return 0
}

func TestExecInvalidatesOnlyAfterSuccess(t *testing.T) {
	cache := &recordingCache{}
	x := New(cache, nil)

	err := x.Exec(context.Background(), "toggle protocol", func(context.Context) error {
		assert.Empty(t, cache.calls, "nothing is invalidated before the server confirms")
		return nil
	}, query.NewKey("protocols"))
	require.NoError(t, err)
	assert.Equal(t, []string{"invalidate:protocols"}, cache.calls)
}

func TestExecFailureSkipsInvalidationAndKeepsError(t *testing.T) {
	cache := &recordingCache{}
	x := New(cache, nil)
	boom := errors.New("Protocol not found")

	err := x.Exec(context.Background(), "toggle protocol", func(context.Context) error {
		return boom
	}, query.NewKey("protocols"))
	assert.Same(t, boom, err)
	assert.Empty(t, cache.calls)
}

func TestRunAppliesContinuationsInOrder(t *testing.T) {
	cache := &recordingCache{}
	x := New(cache, nil)

	got, err := Run(context.Background(), x, "logout",
		func(context.Context) (int, error) { return 7, nil },
		func(_ context.Context, v int, _ Cache) error {
			cache.calls = append(cache.calls, "session cleared")
			assert.Equal(t, 7, v)
			return nil
		},
		EvictAll[int](),
	)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, []string{"session cleared", "clear"}, cache.calls)
}

func TestRunContinuationErrorIsWrapped(t *testing.T) {
	cache := &recordingCache{}
	x := New(cache, nil)
	storage := errors.New("disk full")

	_, err := Run(context.Background(), x, "logout",
		func(context.Context) (string, error) { return "ok", nil },
		func(context.Context, string, Cache) error { return storage },
		EvictAll[string](),
	)
	assert.ErrorIs(t, err, storage)
	assert.Empty(t, cache.calls, "later steps are skipped")
}

func TestInvalidateIf(t *testing.T) {
	cache := &recordingCache{}
	x := New(cache, nil)
	onlyPositive := InvalidateIf(func(n int) bool { return n > 0 }, query.NewKey("achievements", "unlocked"))

	_, err := Run(context.Background(), x, "check", func(context.Context) (int, error) { return 0, nil }, onlyPositive)
	require.NoError(t, err)
	assert.Empty(t, cache.calls)

	_, err = Run(context.Background(), x, "check", func(context.Context) (int, error) { return 2, nil }, onlyPositive)
	require.NoError(t, err)
	assert.Equal(t, []string{"invalidate:achievements/unlocked"}, cache.calls)
}

func TestExecAgainstRealCache(t *testing.T) {
	ctx := context.Background()
	cache := query.New()
	calls := 0
	fetch := func(context.Context) (any, error) { calls++; return calls, nil }
	_, _ = cache.Read(ctx, query.NewKey("bookings"), fetch)

	x := New(cache, nil)
	require.NoError(t, x.Exec(ctx, "cancel booking", func(context.Context) error { return nil }, query.NewKey("bookings")))

	v, err := cache.Read(ctx, query.NewKey("bookings"), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
