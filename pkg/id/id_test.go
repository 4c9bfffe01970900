package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsUniqueAndSortable(t *testing.T) {
	const n = 500

	seen := make(map[string]struct{}, n)
	prev := ""

	for i := 0; i < n; i++ {
		v := New()
		require.Len(t, v, 26)

		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}

		if prev != "" {
			assert.Greater(t, v, prev)
		}
		prev = v
	}
}

func TestNewAt_SameMillisecondStaysMonotonic(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a := NewAt(ts)
	b := NewAt(ts)

	assert.Greater(t, b, a)
}
