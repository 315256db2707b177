package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()

	base := time.Second
	max := 10 * time.Second

	delays := make([]time.Duration, 0, 6)
	for retry := 1; retry <= 6; retry++ {
		delays = append(delays, backoffDelay(base, max, retry))
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, delays)

	// Strictly non-decreasing.
	for i := 1; i < len(delays); i++ {
		assert.GreaterOrEqual(t, delays[i], delays[i-1])
	}
}

func TestBackoffCapBelowBase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 500*time.Millisecond,
		backoffDelay(time.Second, 500*time.Millisecond, 1))
}
