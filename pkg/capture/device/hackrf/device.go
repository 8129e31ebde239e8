package hackrf

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuel/go-hackrf/hackrf"

	"github.com/norasector/iqcapture/pkg/capture/device"
	"github.com/norasector/iqcapture/pkg/util"
)

const (
	maxSampleRate = 20e6
	lnaGain       = 39
	queueDepth    = 64
)

// HackRFDevice streams CS8 samples from a HackRF. hackrf.Init must have been
// called before Init.
type HackRFDevice struct {
	device *hackrf.Device
	logger zerolog.Logger

	centerFreq int
	sampleRate int

	assembler *device.Assembler
}

func NewHackRFDevice(logger zerolog.Logger) *HackRFDevice {
	return &HackRFDevice{logger: logger}
}

func (h *HackRFDevice) MaxSampleRate() int {
	return maxSampleRate
}

// Init ignores address: the first attached HackRF is used.
func (h *HackRFDevice) Init(address string, centerFreqMHz float64, samplingClock int, acquisitionSize int) error {
	if samplingClock > maxSampleRate {
		return fmt.Errorf("sample rate %d > device max sample rate %d", samplingClock, int(maxSampleRate))
	}
	if address != "" {
		h.logger.Debug().Str("address", address).Msg("hackrf ignores receiver address")
	}

	dev, err := hackrf.Open()
	if err != nil {
		return err
	}
	h.device = dev
	h.centerFreq = util.MHzToHz(centerFreqMHz)
	h.sampleRate = samplingClock
	h.assembler = device.NewAssembler(queueDepth)

	if err := h.device.SetFreq(uint64(h.centerFreq)); err != nil {
		return err
	}
	if err := h.device.SetSampleRateManual(h.sampleRate*2, 2); err != nil {
		return err
	}
	if err := h.device.SetLNAGain(lnaGain); err != nil {
		return err
	}
	if err := h.device.SetBasebandFilterBandwidth(h.sampleRate); err != nil {
		return err
	}
	return h.device.SetAmpEnable(true)
}

func (h *HackRFDevice) callback(buf []byte) error {
	h.assembler.Push(device.DecodeCS8(make([]int16, len(buf)), buf))
	return nil
}

func (h *HackRFDevice) StartStream() error {
	if h.device == nil {
		return fmt.Errorf("hackrf not initialized")
	}
	h.assembler.Reset()
	return h.device.StartRX(h.callback)
}

func (h *HackRFDevice) StreamData(timeout time.Duration, blockSize int, out []int16) int {
	return h.assembler.Read(timeout, blockSize, out)
}

func (h *HackRFDevice) StopStream() error {
	if h.device == nil {
		return nil
	}
	if dropped := h.assembler.Dropped(); dropped > 0 {
		h.logger.Warn().Uint64("dropped_chunks", dropped).Msg("hackrf samples dropped while the writer was behind")
	}
	defer h.device.Close()
	return h.device.StopRX()
}
