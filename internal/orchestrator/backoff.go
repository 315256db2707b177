package orchestrator

import "time"

// backoffDelay returns the wait before retry n (n starts at 1): base doubling
// each retry, capped at max. The sequence is strictly non-decreasing.
func backoffDelay(base, max time.Duration, retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}

	delay := base
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
