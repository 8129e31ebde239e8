package capture

type Options struct {
	Address         string
	CenterFreqMHz   float64
	SamplingClock   int
	AcquisitionSize int
	// BlockSize is the number of I/Q pairs requested per poll.
	BlockSize     int
	OutputFile    string
	TimeoutPolicy TimeoutPolicy
	// MaxConsecutiveMisses stops the capture after that many polls in a row
	// came back short. Zero disables the limit.
	MaxConsecutiveMisses int
}
