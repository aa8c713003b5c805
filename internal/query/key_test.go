package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStringEscapesParts(t *testing.T) {
	assert.Equal(t, "protocols/2026-10-19", NewKey("protocols", "2026-10-19").String())
	assert.NotEqual(t, NewKey("a/b").String(), NewKey("a", "b").String())
}

func TestKeyHasPrefix(t *testing.T) {
	k := NewKey("achievements", "progress")
	assert.True(t, k.HasPrefix(NewKey("achievements")))
	assert.True(t, k.HasPrefix(NewKey()))
	assert.True(t, k.HasPrefix(k))
	assert.False(t, k.HasPrefix(NewKey("achievements", "definitions")))
	assert.False(t, NewKey("achievements").HasPrefix(k))
	assert.False(t, NewKey("achievementsX").HasPrefix(NewKey("achievements")))
}

func TestKeyWithDoesNotAlias(t *testing.T) {
	base := make(Key, 1, 4)
	base[0] = "healthMetrics"
	a := base.With("recent")
	b := base.With("range", "x", "y")
	assert.Equal(t, Key{"healthMetrics", "recent"}, a)
	assert.Equal(t, Key{"healthMetrics", "range", "x", "y"}, b)
	assert.True(t, a.Equal(NewKey("healthMetrics", "recent")))
}
