package device

import (
	"sync/atomic"
	"time"
)

// Assembler adapts callback-driven receivers to the polling StreamData call.
// Callbacks push decoded chunks, StreamData drains them into fixed-size blocks.
type Assembler struct {
	chunks  chan []int16
	pending []int16
	dropped atomic.Uint64
}

func NewAssembler(depth int) *Assembler {
	if depth < 1 {
		depth = 1
	}
	return &Assembler{chunks: make(chan []int16, depth)}
}

// Push hands a chunk to the reader. It never blocks: if the reader is behind,
// the chunk is dropped and counted.
func (a *Assembler) Push(chunk []int16) bool {
	select {
	case a.chunks <- chunk:
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// Dropped is the number of chunks discarded because the queue was full.
func (a *Assembler) Dropped() uint64 {
	return a.dropped.Load()
}

// Reset discards everything queued, used when a stream is restarted.
func (a *Assembler) Reset() {
	a.pending = nil
	for {
		select {
		case <-a.chunks:
		default:
			return
		}
	}
}

// Read fills out with 2*blockSize values. On timeout the partial block is
// thrown away and the number of whole pairs received is returned.
func (a *Assembler) Read(timeout time.Duration, blockSize int, out []int16) int {
	want := blockSize * 2
	if len(out) < want {
		want = len(out) &^ 1
	}
	out = out[:want]

	filled := copy(out, a.pending)
	a.pending = a.pending[filled:]
	if filled == want {
		return want / 2
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for filled < want {
		select {
		case <-timer.C:
			return filled / 2
		case chunk := <-a.chunks:
			n := copy(out[filled:], chunk)
			filled += n
			a.pending = chunk[n:]
		}
	}
	return want / 2
}

// DecodeCS8 converts signed 8-bit I/Q bytes (HackRF) to 16-bit values.
func DecodeCS8(dst []int16, src []byte) []int16 {
	dst = dst[:len(src)]
	for i, b := range src {
		dst[i] = int16(int8(b)) << 8
	}
	return dst
}

// DecodeCU8 converts offset-binary unsigned 8-bit I/Q bytes (RTL-SDR) to 16-bit values.
func DecodeCU8(dst []int16, src []byte) []int16 {
	dst = dst[:len(src)]
	for i, b := range src {
		dst[i] = (int16(b) - 128) << 8
	}
	return dst
}
