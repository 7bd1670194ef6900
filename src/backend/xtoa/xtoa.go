// xtoa.go implements functions for converting signed integer and floating point numbers into string representations.
// They are used for printing labels and constant doubles at compile time. The float format matches the C printf
// conversion %f (six decimals) which the downstream stack machine assembler expects.

package xtoa

import (
	"math"
	"strconv"
)

// ItoA converts an integer to a string of ASCII digits.
func ItoA(i int) string {
	if i == 0 {
		return "0"
	}
	res := make([]byte, 32) // Signed 64-bit signed int: (2^64) - 1 is ~ 1,9e19 = 20 characters at most.
	var sign bool

	// Check for negative value.
	u := uint64(i)
	if i < 0 {
		sign = true
		u = uint64(-(i + 1)) + 1
	}

	// Set start index to last index of buffer.
	i1 := len(res) - 1

	// Insert digits back-to-front.
	for ; i1 >= 0 && u != 0; i1-- {
		res[i1] = byte((u % 10) + '0')
		u /= 10
	}

	if sign {
		res[i1] = '-'
		i1--
	}

	return string(res[i1+1:])
}

// FtoA converts a double to a string with 6 decimal precision, the way C's %f does.
// Infinities print as inf and -inf, NaN prints as nan.
func FtoA(f float64) string {
	switch {
	case math.IsNaN(f):
		if math.Signbit(f) {
			return "-nan"
		}
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}
