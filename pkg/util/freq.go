package util

import "fmt"

func MHzToString(mhz float64) string {
	return fmt.Sprintf("%0.4f MHz", mhz)
}

func HzToString(hz int) string {
	return MHzToString(float64(hz) / 1e6)
}

// MHzToHz rounds to the nearest Hz.
func MHzToHz(mhz float64) int {
	return int(mhz*1e6 + 0.5)
}
