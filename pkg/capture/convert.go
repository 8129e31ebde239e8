package capture

import (
	"encoding/binary"
	"math"
)

// FullScale is the magnitude of a signed 16-bit sample, used as the normalization divisor.
const FullScale float32 = 32768.0

// BytesPerSample is the on-disk width of one converted value.
const BytesPerSample = 4

// Convert normalizes fixed-point samples into dst. I/Q interleaving is kept as is.
// dst must be at least as long as src.
func Convert(dst []float32, src []int16) {
	dst = dst[:len(src)]
	for i, s := range src {
		dst[i] = float32(s) / FullScale
	}
}

// EncodeFloat32 writes src into dst as little-endian float32 values and returns
// the filled portion of dst.
func EncodeFloat32(dst []byte, src []float32) []byte {
	dst = dst[:len(src)*BytesPerSample]
	for i, f := range src {
		binary.LittleEndian.PutUint32(dst[i*BytesPerSample:], math.Float32bits(f))
	}
	return dst
}
