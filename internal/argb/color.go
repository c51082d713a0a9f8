// Package argb provides a packed 32-bit color value laid out as
// alpha, red, green and blue octets from the most to the least
// significant byte.
package argb

import "fmt"

// Color is a packed ARGB color. Arithmetic on Color wraps the same way
// fixed-width integer arithmetic does.
type Color int32

const (
	Transparent Color = 0
	Black       Color = -0x1000000 // 0xFF000000
	White       Color = -1         // 0xFFFFFFFF
)

// New packs the four components into a Color.
func New(alpha, red, green, blue uint8) Color {
	return Color(uint32(alpha)<<24 | uint32(red)<<16 | uint32(green)<<8 | uint32(blue))
}

// RGB packs an opaque color.
func RGB(red, green, blue uint8) Color {
	return New(0xFF, red, green, blue)
}

// FromUint32 reinterprets a 0xAARRGGBB literal as a Color.
func FromUint32(value uint32) Color {
	return Color(value)
}

func (c Color) Uint32() uint32 {
	return uint32(c)
}

func (c Color) Alpha() uint8 {
	return uint8(uint32(c) >> 24 & 0xFF)
}

func (c Color) Red() uint8 {
	return uint8(uint32(c) >> 16 & 0xFF)
}

func (c Color) Green() uint8 {
	return uint8(uint32(c) >> 8 & 0xFF)
}

func (c Color) Blue() uint8 {
	return uint8(uint32(c) & 0xFF)
}

// Components unpacks the color into alpha, red, green and blue.
func (c Color) Components() (alpha, red, green, blue uint8) {
	return c.Alpha(), c.Red(), c.Green(), c.Blue()
}

// IsOpaque reports whether the alpha octet is 0xFF.
func (c Color) IsOpaque() bool {
	return c.Alpha() == 0xFF
}

// WithAlpha replaces the alpha octet.
func (c Color) WithAlpha(alpha uint8) Color {
	return Color(uint32(c)&0x00FFFFFF | uint32(alpha)<<24)
}

// RGBOnly drops the alpha octet, leaving a 24-bit value.
func (c Color) RGBOnly() int32 {
	return int32(uint32(c) & 0x00FFFFFF)
}

func (c Color) Add(other Color) Color { return c + other }

func (c Color) Sub(other Color) Color { return c - other }

func (c Color) Mul(other Color) Color { return c * other }

// Div divides with truncation. Division by zero yields 0 and the single
// overflowing case (min int32 / -1) wraps back to min int32.
func (c Color) Div(other Color) Color {
	if other == 0 {
		return 0
	}
	if other == -1 {
		return -c
	}
	return c / other
}

// Rem follows Div: a zero divisor yields 0.
func (c Color) Rem(other Color) Color {
	if other == 0 || other == -1 {
		return 0
	}
	return c % other
}

func (c Color) Or(other Color) Color { return c | other }

func (c Color) And(other Color) Color { return c & other }

// Shl shifts left; shift counts are taken modulo 32.
func (c Color) Shl(count uint) Color { return c << (count & 31) }

// Shr is an arithmetic shift right; shift counts are taken modulo 32.
func (c Color) Shr(count uint) Color { return c >> (count & 31) }

// Hex renders the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.Red(), c.Green(), c.Blue())
}

// String renders the color as #AARRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.Alpha(), c.Red(), c.Green(), c.Blue())
}
