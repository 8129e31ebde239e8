package file

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/norasector/iqcapture/pkg/util"
)

// FileDevice replays a recording of little-endian int16 interleaved I/Q
// samples, as a receiver would deliver them. The address passed to Init is the
// path of the recording.
type FileDevice struct {
	readFile   io.ReadCloser
	readBuf    []byte
	realtime   bool
	sampleRate int
	started    bool
	nextBlock  time.Time
	sleep      func(time.Duration)
}

// NewFileDevice returns a playback device. With realtime set, blocks are
// released no faster than the sampling clock would produce them.
func NewFileDevice(realtime bool) *FileDevice {
	return &FileDevice{realtime: realtime, sleep: time.Sleep}
}

func newReaderDevice(r io.ReadCloser, sampleRate int) *FileDevice {
	return &FileDevice{readFile: r, sampleRate: sampleRate, sleep: time.Sleep}
}

func (f *FileDevice) Init(address string, centerFreqMHz float64, samplingClock int, acquisitionSize int) error {
	if address == "" {
		return errors.New("no playback file given")
	}
	file, err := os.Open(address)
	if err != nil {
		return err
	}
	f.readFile = file
	f.sampleRate = samplingClock
	return nil
}

func (f *FileDevice) StartStream() error {
	if f.readFile == nil {
		return errors.New("playback file not open")
	}
	f.started = true
	f.nextBlock = time.Now()
	return nil
}

// StreamData returns a short count at end of file or on read errors.
func (f *FileDevice) StreamData(timeout time.Duration, blockSize int, out []int16) int {
	if !f.started {
		return 0
	}
	values := blockSize * 2
	if len(out) < values {
		return 0
	}
	if cap(f.readBuf) < values*2 {
		f.readBuf = make([]byte, values*2)
	}
	buf := f.readBuf[:values*2]

	f.pace(timeout, blockSize)

	n, err := io.ReadFull(f.readFile, buf)
	if err != nil {
		return n / 4
	}
	for i := 0; i < values; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return blockSize
}

func (f *FileDevice) pace(timeout time.Duration, blockSize int) {
	if !f.realtime || f.sampleRate <= 0 {
		return
	}
	wait := time.Until(f.nextBlock)
	if wait > timeout {
		wait = timeout
	}
	if wait > 0 {
		f.sleep(wait)
	}
	f.nextBlock = f.nextBlock.Add(util.BlockDuration(blockSize, f.sampleRate))
}

func (f *FileDevice) StopStream() error {
	if !f.started {
		return fmt.Errorf("stream not started")
	}
	f.started = false
	return f.readFile.Close()
}
