package util

import (
	"testing"
	"time"
)

func TestMHzToString(t *testing.T) {
	tests := []struct {
		mhz  float64
		want string
	}{
		{649.0, "649.0000 MHz"},
		{433.92, "433.9200 MHz"},
	}
	for _, tt := range tests {
		if got := MHzToString(tt.mhz); got != tt.want {
			t.Errorf("MHzToString(%v) = %q, want %q", tt.mhz, got, tt.want)
		}
	}
	if got := HzToString(7680000); got != "7.6800 MHz" {
		t.Errorf("HzToString() = %q", got)
	}
}

func TestMHzToHz(t *testing.T) {
	if got := MHzToHz(649.0); got != 649000000 {
		t.Errorf("MHzToHz(649) = %d", got)
	}
	if got := MHzToHz(433.92); got != 433920000 {
		t.Errorf("MHzToHz(433.92) = %d", got)
	}
}

func TestBlockDuration(t *testing.T) {
	if got := BlockDuration(7680000, 7680000); got != time.Second {
		t.Errorf("BlockDuration() = %v, want 1s", got)
	}
	if got := BlockDuration(100, 0); got != 0 {
		t.Errorf("BlockDuration() with zero rate = %v", got)
	}
}
