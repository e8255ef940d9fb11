// Package device provides device capability adapters for the scan
// session core: a directory-backed feeder used for development and
// testing, and helpers shared by adapters that speak fixed-point wire
// formats.
package device

// Conversions for the 16.16 fixed-point encoding many scanner
// protocols use for resolutions and geometry. The encoding covers
// roughly -32768..32767.9999; values are clamped at the negative end.

// FixedToFloat converts a 16.16 fixed-point value to a float.
func FixedToFloat(fixed int32) float64 {
	if fixed == -1<<31 {
		return -32768.0
	}
	return float64(fixed) / 65536.0
}

// FloatToFixed converts a float to the nearest 16.16 fixed-point value.
func FloatToFixed(f float64) int32 {
	if f <= -32768.0 {
		return -1 << 31
	}
	if f >= 32767.99998 {
		return 1<<31 - 1
	}
	v := f * 65536.0
	if v >= 0 {
		return int32(v + 0.5)
	}
	return int32(v - 0.5)
}
