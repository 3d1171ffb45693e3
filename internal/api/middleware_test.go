package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestIPLimiter_SweepEvictsIdleEntries(t *testing.T) {
	l := newIPLimiter(rate.Every(time.Second), 5)

	l.get("203.0.113.7")
	l.get("203.0.113.8")
	require.Len(t, l.limiters, 2)

	l.mu.Lock()
	l.limiters["203.0.113.7"].lastSeen = time.Now().Add(-time.Hour)
	l.sweepLocked(time.Now())
	l.mu.Unlock()

	assert.NotContains(t, l.limiters, "203.0.113.7")
	assert.Contains(t, l.limiters, "203.0.113.8")
}

func TestIPLimiter_GetRefreshesLastSeen(t *testing.T) {
	l := newIPLimiter(rate.Every(time.Second), 5)

	l.get("203.0.113.7")
	l.mu.Lock()
	l.limiters["203.0.113.7"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	// an active client survives the next sweep
	l.get("203.0.113.7")
	l.mu.Lock()
	l.sweepLocked(time.Now())
	l.mu.Unlock()

	assert.Contains(t, l.limiters, "203.0.113.7")
}
