package rtlsdr

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	gsdr "github.com/jpoirier/gortlsdr"
	"github.com/rs/zerolog"

	"github.com/norasector/iqcapture/pkg/capture/device"
	"github.com/norasector/iqcapture/pkg/util"
)

const (
	maxSampleRate = 2e6
	queueDepth    = 64
)

// RTLSDRDevice streams CU8 samples from an RTL-SDR dongle through the async
// read API.
type RTLSDRDevice struct {
	deviceIdx int
	device    *gsdr.Context
	logger    zerolog.Logger

	centerFreq int
	sampleRate int

	assembler *device.Assembler
	wg        sync.WaitGroup
	readErr   chan error
}

func NewRTLSDRDevice(deviceIdx int, logger zerolog.Logger) *RTLSDRDevice {
	return &RTLSDRDevice{deviceIdx: deviceIdx, logger: logger}
}

func (r *RTLSDRDevice) MaxSampleRate() int {
	return maxSampleRate
}

// Init treats a numeric address as the dongle index, overriding the one the
// device was constructed with.
func (r *RTLSDRDevice) Init(address string, centerFreqMHz float64, samplingClock int, acquisitionSize int) error {
	if samplingClock > maxSampleRate {
		return fmt.Errorf("sample rate %d > device max sample rate %d", samplingClock, int(maxSampleRate))
	}
	if idx, err := strconv.Atoi(address); err == nil {
		r.deviceIdx = idx
	}

	var err error
	r.device, err = gsdr.Open(r.deviceIdx)
	if err != nil {
		return err
	}
	r.centerFreq = util.MHzToHz(centerFreqMHz)
	r.sampleRate = samplingClock
	r.assembler = device.NewAssembler(queueDepth)

	if err := r.device.SetCenterFreq(r.centerFreq); err != nil {
		return err
	}
	if err := r.device.SetSampleRate(r.sampleRate); err != nil {
		return err
	}
	return r.device.ResetBuffer()
}

func (r *RTLSDRDevice) callback(buf []byte) {
	r.assembler.Push(device.DecodeCU8(make([]int16, len(buf)), buf))
}

func (r *RTLSDRDevice) StartStream() error {
	if r.device == nil {
		return fmt.Errorf("rtlsdr not initialized")
	}
	r.assembler.Reset()
	r.readErr = make(chan error, 1)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.readErr <- r.device.ReadAsync(r.callback, nil, 0, 0)
	}()
	return nil
}

func (r *RTLSDRDevice) StreamData(timeout time.Duration, blockSize int, out []int16) int {
	return r.assembler.Read(timeout, blockSize, out)
}

func (r *RTLSDRDevice) StopStream() error {
	if r.device == nil {
		return nil
	}
	err := r.device.CancelAsync()

	r.wg.Wait()
	if err != nil {
		return err
	}
	if r.readErr != nil {
		if readErr := <-r.readErr; readErr != nil {
			r.logger.Warn().Err(readErr).Msg("rtlsdr async read ended with error")
		}
	}
	if dropped := r.assembler.Dropped(); dropped > 0 {
		r.logger.Warn().Uint64("dropped_chunks", dropped).Msg("rtlsdr samples dropped while the writer was behind")
	}

	return r.device.Close()
}
