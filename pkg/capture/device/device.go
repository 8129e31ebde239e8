package device

import "time"

// Device is the receiver control surface used by the capture loop.
type Device interface {
	// Init connects to the receiver and tunes it. address is backend specific.
	Init(address string, centerFreqMHz float64, samplingClock int, acquisitionSize int) error
	StartStream() error
	// StreamData fills out with up to blockSize interleaved I/Q pairs, waiting
	// at most timeout, and returns the number of pairs delivered. Anything
	// other than blockSize means the block is unusable.
	StreamData(timeout time.Duration, blockSize int, out []int16) int
	StopStream() error
}
