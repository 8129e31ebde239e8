package capture

import (
	"fmt"
	"time"
)

const minPollTimeout = 2000 * time.Millisecond

// TimeoutPolicy decides how long a single block poll may wait for the device.
type TimeoutPolicy string

const (
	// TimeoutTruncate uses integer division of block size by clock rate:
	// blocks shorter than one second of samples get the 2s floor, longer ones
	// get whole seconds plus 2s.
	TimeoutTruncate TimeoutPolicy = "truncate"
	// TimeoutCeil rounds the block duration up to whole seconds before adding 2s.
	TimeoutCeil TimeoutPolicy = "ceil"
)

func ParseTimeoutPolicy(s string) (TimeoutPolicy, error) {
	switch TimeoutPolicy(s) {
	case "", TimeoutTruncate:
		return TimeoutTruncate, nil
	case TimeoutCeil:
		return TimeoutCeil, nil
	}
	return "", fmt.Errorf("unknown timeout policy %q (want %q or %q)", s, TimeoutTruncate, TimeoutCeil)
}

// Timeout returns the poll timeout for blockSize samples at samplingClock Hz.
// The result is never below two seconds.
func (p TimeoutPolicy) Timeout(blockSize, samplingClock int) time.Duration {
	if samplingClock <= 0 {
		return minPollTimeout
	}

	var seconds int
	switch p {
	case TimeoutCeil:
		seconds = (blockSize+samplingClock-1)/samplingClock + 2
	default:
		if blockSize < samplingClock {
			return minPollTimeout
		}
		seconds = blockSize/samplingClock + 2
	}

	timeout := time.Duration(seconds) * time.Second
	if timeout < minPollTimeout {
		return minPollTimeout
	}
	return timeout
}
