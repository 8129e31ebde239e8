package device

import (
	"reflect"
	"testing"
	"time"
)

func TestAssemblerRead(t *testing.T) {
	a := NewAssembler(8)
	a.Push([]int16{1, 2, 3})
	a.Push([]int16{4, 5, 6, 7})
	a.Push([]int16{8, 9, 10})

	out := make([]int16, 6)
	if n := a.Read(time.Second, 3, out); n != 3 {
		t.Fatalf("Read() = %d, want 3", n)
	}
	if want := []int16{1, 2, 3, 4, 5, 6}; !reflect.DeepEqual(out, want) {
		t.Errorf("first block = %v, want %v", out, want)
	}

	out = make([]int16, 4)
	if n := a.Read(time.Second, 2, out); n != 2 {
		t.Fatalf("Read() = %d, want 2", n)
	}
	if want := []int16{7, 8, 9, 10}; !reflect.DeepEqual(out, want) {
		t.Errorf("second block = %v, want %v", out, want)
	}
}

func TestAssemblerTimeout(t *testing.T) {
	a := NewAssembler(2)
	a.Push([]int16{1, 2, 3, 4})

	out := make([]int16, 8)
	start := time.Now()
	if n := a.Read(20*time.Millisecond, 4, out); n != 2 {
		t.Errorf("Read() = %d, want 2 pairs", n)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Read returned before the timeout")
	}

	// The partial block is gone; the next read starts fresh.
	a.Push([]int16{5, 6, 7, 8, 9, 10, 11, 12})
	if n := a.Read(time.Second, 4, out); n != 4 {
		t.Fatalf("Read() = %d, want 4", n)
	}
	if want := []int16{5, 6, 7, 8, 9, 10, 11, 12}; !reflect.DeepEqual(out, want) {
		t.Errorf("block = %v, want %v", out, want)
	}
}

func TestAssemblerDropsWhenFull(t *testing.T) {
	a := NewAssembler(1)
	if !a.Push([]int16{1, 2}) {
		t.Fatal("first push dropped")
	}
	if a.Push([]int16{3, 4}) {
		t.Fatal("push into full queue succeeded")
	}
	if a.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", a.Dropped())
	}
	a.Reset()
	if n := a.Read(time.Millisecond, 1, make([]int16, 2)); n != 0 {
		t.Errorf("Read() after reset = %d, want 0", n)
	}
}

func TestDecode(t *testing.T) {
	src := []byte{0x00, 0x7f, 0x80, 0xff}
	if got, want := DecodeCS8(make([]int16, 4), src), []int16{0, 127 << 8, -128 << 8, -1 << 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeCS8() = %v, want %v", got, want)
	}
	if got, want := DecodeCU8(make([]int16, 4), src), []int16{-128 << 8, -1 << 8, 0, 127 << 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeCU8() = %v, want %v", got, want)
	}
}
