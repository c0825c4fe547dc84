package color

import (
	"fmt"
	"math"
)

// Ensure normalizes an external color spec into RGB. Accepted specs are a
// packed 0xRRGGBB integer, a hex string, or a sequence of exactly three
// channel values. Anything else fails with ErrInvalidColor.
func Ensure(v any) (RGB, error) {
	switch c := v.(type) {
	case RGB:
		return c, nil
	case int:
		return fromSigned(int64(c))
	case int32:
		return fromSigned(int64(c))
	case int64:
		return fromSigned(c)
	case uint:
		return FromInt(uint32(c)), nil
	case uint32:
		return FromInt(c), nil
	case uint64:
		return FromInt(uint32(c)), nil
	case float64:
		if c != math.Trunc(c) {
			return Off, fmt.Errorf("%w: %v is not an integer", ErrInvalidColor, c)
		}
		return fromSigned(int64(c))
	case string:
		return ParseHex(c)
	case [3]int:
		return FromTuple(c[0], c[1], c[2]), nil
	case [3]uint8:
		return RGB{R: c[0], G: c[1], B: c[2]}, nil
	case []uint8:
		if len(c) != 3 {
			return Off, arity(len(c))
		}
		return RGB{R: c[0], G: c[1], B: c[2]}, nil
	case []int:
		if len(c) != 3 {
			return Off, arity(len(c))
		}
		return FromTuple(c[0], c[1], c[2]), nil
	case []any:
		if len(c) != 3 {
			return Off, arity(len(c))
		}
		var ch [3]int
		for i, e := range c {
			n, ok := channel(e)
			if !ok {
				return Off, fmt.Errorf("%w: channel %d (%v) is not an integer", ErrInvalidColor, i, e)
			}
			ch[i] = n
		}
		return FromTuple(ch[0], ch[1], ch[2]), nil
	}
	return Off, fmt.Errorf("%w: must be an int or a sequence of three integers, got %T", ErrInvalidColor, v)
}

func fromSigned(n int64) (RGB, error) {
	if n < 0 {
		return Off, fmt.Errorf("%w: negative value %d", ErrInvalidColor, n)
	}
	return FromInt(uint32(n)), nil
}

func arity(n int) error {
	return fmt.Errorf("%w: RGB sequences must contain exactly three items, got %d", ErrInvalidColor, n)
}

func channel(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
