package capture

// Buffers holds the per-block working memory of a capture. Everything is sized
// once from the block size and overwritten in place on every iteration, so
// callers must not keep references to the contents past the iteration that
// filled them.
type Buffers struct {
	blockSize int
	raw       []int16
	converted []float32
	encoded   []byte
	released  bool
}

func NewBuffers(blockSize int) *Buffers {
	n := blockSize * 2
	return &Buffers{
		blockSize: blockSize,
		raw:       make([]int16, n),
		converted: make([]float32, n),
		encoded:   make([]byte, n*BytesPerSample),
	}
}

// BlockSize is the number of samples per channel in one block.
func (b *Buffers) BlockSize() int {
	return b.blockSize
}

// Raw is the device-facing buffer, 2*BlockSize interleaved I/Q values.
func (b *Buffers) Raw() []int16 {
	return b.raw
}

func (b *Buffers) Converted() []float32 {
	return b.converted
}

// Convert normalizes the raw buffer into the converted buffer and returns the
// encoded bytes of the whole block, ready for a single sink append.
func (b *Buffers) Convert() []byte {
	Convert(b.converted, b.raw)
	return EncodeFloat32(b.encoded, b.converted)
}

// Release drops the buffers. Calling it more than once is a no-op.
func (b *Buffers) Release() {
	if b.released {
		return
	}
	b.released = true
	b.raw = nil
	b.converted = nil
	b.encoded = nil
}

func (b *Buffers) Released() bool {
	return b.released
}
