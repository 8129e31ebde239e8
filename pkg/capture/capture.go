package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/norasector/iqcapture/pkg/capture/device"
	"github.com/norasector/iqcapture/pkg/util"
)

// ErrMissCeiling is returned when more consecutive polls came back short than
// Options.MaxConsecutiveMisses allows.
var ErrMissCeiling = errors.New("too many consecutive short reads")

// DeviceError is a failed receiver control call. These are not recoverable.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// SinkOpener creates the output for a capture.
type SinkOpener func(path string) (Sink, error)

func openFileSink(path string) (Sink, error) {
	return OpenFileSink(path)
}

type Capture struct {
	device    device.Device
	opts      Options
	canceller Canceller
	openSink  SinkOpener
	progress  io.Writer
	writeAPI  api.WriteAPI
	logger    zerolog.Logger
	session   uuid.UUID
	stats     Stats
	timeout   time.Duration
}

type CaptureOption func(c *Capture) error

func WithCanceller(canceller Canceller) CaptureOption {
	return func(c *Capture) error {
		c.canceller = canceller
		return nil
	}
}

func WithSinkOpener(opener SinkOpener) CaptureOption {
	return func(c *Capture) error {
		c.openSink = opener
		return nil
	}
}

// WithProgress sets where the operator-facing status lines and the block
// counter go. Defaults to stdout.
func WithProgress(w io.Writer) CaptureOption {
	return func(c *Capture) error {
		c.progress = w
		return nil
	}
}

func WithInfluxDB(writeAPI api.WriteAPI) CaptureOption {
	return func(c *Capture) error {
		c.writeAPI = writeAPI
		return nil
	}
}

func WithLogger(logger zerolog.Logger) CaptureOption {
	return func(c *Capture) error {
		c.logger = logger
		return nil
	}
}

type neverCancelled struct{}

func (neverCancelled) Cancelled() bool { return false }

func NewCapture(dev device.Device, options Options, opts ...CaptureOption) (*Capture, error) {
	c := &Capture{
		device:    dev,
		opts:      options,
		canceller: neverCancelled{},
		openSink:  openFileSink,
		progress:  os.Stdout,
		writeAPI:  &util.MockWriteAPI{}, // overwritten with option
		logger:    log.Logger,
		session:   uuid.New(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.opts.BlockSize <= 0 || c.opts.SamplingClock <= 0 {
		return nil, fmt.Errorf("must specify block size and sampling clock")
	}
	if c.opts.OutputFile == "" {
		return nil, fmt.Errorf("must specify output file")
	}
	if c.opts.MaxConsecutiveMisses < 0 {
		return nil, fmt.Errorf("max consecutive misses must not be negative")
	}
	if c.opts.TimeoutPolicy == "" {
		c.opts.TimeoutPolicy = TimeoutTruncate
	}
	c.timeout = c.opts.TimeoutPolicy.Timeout(c.opts.BlockSize, c.opts.SamplingClock)
	c.logger = c.logger.With().Str("session", c.session.String()).Logger()

	return c, nil
}

// Session identifies this capture in logs and metrics.
func (c *Capture) Session() uuid.UUID {
	return c.session
}

func (c *Capture) Stats() *Stats {
	return &c.stats
}

func (c *Capture) Timeout() time.Duration {
	return c.timeout
}

// Init connects to and tunes the receiver.
func (c *Capture) Init() error {
	if err := c.device.Init(c.opts.Address, c.opts.CenterFreqMHz, c.opts.SamplingClock, c.opts.AcquisitionSize); err != nil {
		return &DeviceError{Op: "initialization", Err: err}
	}
	c.logger.Info().
		Str("address", c.opts.Address).
		Str("center_freq", util.MHzToString(c.opts.CenterFreqMHz)).
		Str("sample_rate", util.HzToString(c.opts.SamplingClock)).
		Msg("receiver initialized")
	return nil
}

func (c *Capture) cancelled(ctx context.Context) bool {
	return c.canceller.Cancelled() || ctx.Err() != nil
}

// Run starts the stream and writes blocks until cancelled. Cancellation is
// only observed between polls; a poll in flight always completes. The stream
// is stopped and the sink closed on every path once both were set up.
func (c *Capture) Run(ctx context.Context) error {
	if err := c.device.StartStream(); err != nil {
		return &DeviceError{Op: "start stream", Err: err}
	}
	fmt.Fprintln(c.progress, "Streaming started")

	sink, err := c.openSink(c.opts.OutputFile)
	if err != nil {
		if stopErr := c.device.StopStream(); stopErr != nil {
			c.logger.Error().Err(stopErr).Msg("stop stream after failed sink open")
		}
		return err
	}

	bufs := NewBuffers(c.opts.BlockSize)
	defer bufs.Release()

	c.stats.setState(StateRunning)
	c.logger.Info().
		Str("output", c.opts.OutputFile).
		Int("block_size", c.opts.BlockSize).
		Dur("timeout", c.timeout).
		Msg("data reception started")
	fmt.Fprintln(c.progress, "Data reception started, press 'Ctrl+C' to terminate...")

	loopErr := c.acquire(ctx, bufs, sink)

	c.stats.setState(StateStopping)
	fmt.Fprintln(c.progress)

	var stopErr error
	if err := c.device.StopStream(); err != nil {
		stopErr = &DeviceError{Op: "stop stream", Err: err}
	}
	closeErr := sink.Close()
	c.writeAPI.Flush()
	c.stats.setState(StateStopped)

	c.logger.Info().
		Uint64("blocks_written", c.stats.Blocks()).
		Uint64("misses", c.stats.Misses()).
		Msg("capture stopped")

	switch {
	case loopErr != nil:
		return loopErr
	case stopErr != nil:
		return stopErr
	default:
		return closeErr
	}
}

func (c *Capture) acquire(ctx context.Context, bufs *Buffers, sink Sink) error {
	blockSize := bufs.BlockSize()
	consecutiveMisses := 0
	tags := map[string]string{
		"session":     c.session.String(),
		"center_freq": util.MHzToString(c.opts.CenterFreqMHz),
	}

	for !c.cancelled(ctx) {
		n := c.device.StreamData(c.timeout, blockSize, bufs.Raw())
		if n != blockSize {
			consecutiveMisses++
			misses := c.stats.misses.Add(1)
			c.writeAPI.WritePoint(influxdb2.NewPoint("capture.miss", tags,
				map[string]interface{}{
					"samples_returned":   n,
					"consecutive_misses": consecutiveMisses,
					"misses":             misses,
				}, time.Now()))

			if c.opts.MaxConsecutiveMisses > 0 && consecutiveMisses >= c.opts.MaxConsecutiveMisses {
				c.logger.Error().Int("consecutive_misses", consecutiveMisses).Msg("receiver stopped delivering blocks")
				return fmt.Errorf("%w: %d in a row", ErrMissCeiling, consecutiveMisses)
			}
			continue
		}
		consecutiveMisses = 0

		var block []byte
		convertUs := util.TimeOperationMicroseconds(func() {
			block = bufs.Convert()
		})

		if err := sink.Write(block); err != nil {
			return fmt.Errorf("block %d: %w", c.stats.Blocks()+1, err)
		}
		written := c.stats.blocks.Add(1)
		c.stats.bytesWritten.Add(uint64(len(block)))

		if !c.cancelled(ctx) {
			fmt.Fprintf(c.progress, "Data blocks written: %d\r", written)
		}

		c.writeAPI.WritePoint(influxdb2.NewPoint("capture.block", tags,
			map[string]interface{}{
				"blocks_written": written,
				"bytes_written":  len(block),
				"convert_us":     convertUs,
			}, time.Now()))
	}
	return nil
}
