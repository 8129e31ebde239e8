package capture

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		src  []int16
		want []float32
	}{{
		"full scale",
		[]int16{0, 1, -1, 16384, -16384, math.MaxInt16, math.MinInt16, 0},
		[]float32{0, 1. / 32768, -1. / 32768, 0.5, -0.5, 32767. / 32768, -1, 0},
	}, {
		"interleave kept",
		[]int16{100, -200, 300, -400},
		[]float32{100. / 32768, -200. / 32768, 300. / 32768, -400. / 32768},
	}, {
		"empty",
		[]int16{},
		[]float32{},
	},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]float32, len(tt.src))
			Convert(got, tt.src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Convert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertEveryValue(t *testing.T) {
	src := make([]int16, 0, 1<<16)
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		src = append(src, int16(v))
	}
	dst := make([]float32, len(src))
	Convert(dst, src)

	for i, s := range src {
		if dst[i] != float32(s)/FullScale {
			t.Fatalf("index %d: got %v want %v", i, dst[i], float32(s)/FullScale)
		}
		if dst[i] < -1 || dst[i] >= 1 {
			t.Fatalf("index %d: %v out of [-1, 1)", i, dst[i])
		}
	}
}

func TestEncodeFloat32(t *testing.T) {
	src := []float32{0.5, -1, 0.25}
	got := EncodeFloat32(make([]byte, 64), src)
	if len(got) != len(src)*BytesPerSample {
		t.Fatalf("len = %d, want %d", len(got), len(src)*BytesPerSample)
	}
	for i, want := range src {
		f := math.Float32frombits(binary.LittleEndian.Uint32(got[i*4:]))
		if f != want {
			t.Errorf("value %d = %v, want %v", i, f, want)
		}
	}
}

func TestBuffersReuse(t *testing.T) {
	const blockSize = 4
	b := NewBuffers(blockSize)
	if len(b.Raw()) != 2*blockSize || len(b.Converted()) != 2*blockSize {
		t.Fatalf("buffer lengths %d/%d, want %d", len(b.Raw()), len(b.Converted()), 2*blockSize)
	}

	raw := b.Raw()
	for i := range raw {
		raw[i] = 32767
	}
	first := append([]byte(nil), b.Convert()...)

	for i := range raw {
		raw[i] = int16(-i * 1000)
	}
	second := b.Convert()

	if len(second) != len(first) {
		t.Fatalf("encoded length changed: %d -> %d", len(first), len(second))
	}
	for i := range raw {
		want := float32(-i*1000) / FullScale
		if b.Converted()[i] != want {
			t.Errorf("converted[%d] = %v, want %v", i, b.Converted()[i], want)
		}
		f := math.Float32frombits(binary.LittleEndian.Uint32(second[i*4:]))
		if f != want {
			t.Errorf("encoded[%d] = %v, want %v", i, f, want)
		}
	}
	if &b.Raw()[0] != &raw[0] {
		t.Error("raw buffer was reallocated")
	}
}

func TestBuffersRelease(t *testing.T) {
	b := NewBuffers(8)
	b.Release()
	b.Release()
	if !b.Released() || b.Raw() != nil || b.Converted() != nil {
		t.Error("buffers not released")
	}
}
