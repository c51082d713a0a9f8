// Package colorutil holds the colorimetric helpers used by the palette
// pipeline: HSL and CIE XYZ conversions, WCAG relative luminance and
// contrast, alpha compositing and the minimum-alpha contrast solver.
package colorutil

import (
	"errors"
	"math"

	"vibrance/internal/argb"
)

const (
	minAlphaSearchMaxIterations = 10
	minAlphaSearchPrecision     = 1
)

// ErrTranslucentBackground is returned when a contrast computation is
// asked to measure against a background that is not fully opaque.
var ErrTranslucentBackground = errors.New("background must be opaque")

// RGBToHSL converts 8-bit channels to hue [0, 360), saturation [0, 1]
// and lightness [0, 1].
func RGBToHSL(red, green, blue uint8) [3]float32 {
	rf := float32(red) / 255
	gf := float32(green) / 255
	bf := float32(blue) / 255

	maxChannel := max(rf, gf, bf)
	minChannel := min(rf, gf, bf)
	delta := maxChannel - minChannel

	var hue, saturation float32
	lightness := (maxChannel + minChannel) / 2

	if maxChannel != minChannel {
		switch maxChannel {
		case rf:
			hue = float32(math.Mod(float64((gf-bf)/delta), 6))
		case gf:
			hue = (bf-rf)/delta + 2
		default:
			hue = (rf-gf)/delta + 4
		}

		saturation = delta / (1 - float32(math.Abs(float64(2*lightness-1))))
	}

	hue = float32(math.Mod(float64(hue*60), 360))
	if hue < 0 {
		hue += 360
	}

	return [3]float32{
		constrain(hue, 0, 360),
		constrain(saturation, 0, 1),
		constrain(lightness, 0, 1),
	}
}

// ColorToHSL converts a packed color to HSL, ignoring alpha.
func ColorToHSL(c argb.Color) [3]float32 {
	return RGBToHSL(c.Red(), c.Green(), c.Blue())
}

// HSLToColor converts HSL components back into an opaque packed color.
func HSLToColor(hsl [3]float32) argb.Color {
	hue := float64(hsl[0])
	saturation := float64(hsl[1])
	lightness := float64(hsl[2])

	chroma := (1 - math.Abs(2*lightness-1)) * saturation
	m := lightness - 0.5*chroma
	x := chroma * (1 - math.Abs(math.Mod(hue/60, 2)-1))

	var r, g, b float64
	switch int(hue) / 60 {
	case 0:
		r, g, b = chroma+m, x+m, m
	case 1:
		r, g, b = x+m, chroma+m, m
	case 2:
		r, g, b = m, chroma+m, x+m
	case 3:
		r, g, b = m, x+m, chroma+m
	case 4:
		r, g, b = x+m, m, chroma+m
	default:
		r, g, b = chroma+m, m, x+m
	}

	return argb.RGB(unitToByte(r), unitToByte(g), unitToByte(b))
}

// RGBToXYZ converts 8-bit sRGB channels into CIE XYZ using the D65
// illuminant, with Y scaled to [0, 100].
func RGBToXYZ(red, green, blue uint8) [3]float64 {
	r := expandGamma(red)
	g := expandGamma(green)
	b := expandGamma(blue)

	return [3]float64{
		100 * (r*0.4124 + g*0.3576 + b*0.1805),
		100 * (r*0.2126 + g*0.7152 + b*0.0722),
		100 * (r*0.0193 + g*0.1192 + b*0.9505),
	}
}

func ColorToXYZ(c argb.Color) [3]float64 {
	return RGBToXYZ(c.Red(), c.Green(), c.Blue())
}

// Luminance returns the relative luminance of c in [0, 1].
func Luminance(c argb.Color) float64 {
	return ColorToXYZ(c)[1] / 100
}

// SetAlphaComponent keeps the color channels of c and replaces its alpha.
func SetAlphaComponent(c argb.Color, alpha uint8) argb.Color {
	return c.WithAlpha(alpha)
}

// Composite blends foreground over background with the "over" operator.
func Composite(foreground, background argb.Color) argb.Color {
	backgroundAlpha := int(background.Alpha())
	foregroundAlpha := int(foreground.Alpha())
	alpha := compositeAlpha(foregroundAlpha, backgroundAlpha)

	red := compositeComponent(int(foreground.Red()), foregroundAlpha, int(background.Red()), backgroundAlpha, alpha)
	green := compositeComponent(int(foreground.Green()), foregroundAlpha, int(background.Green()), backgroundAlpha, alpha)
	blue := compositeComponent(int(foreground.Blue()), foregroundAlpha, int(background.Blue()), backgroundAlpha, alpha)

	return argb.New(uint8(alpha), red, green, blue)
}

// ContrastRatio returns the WCAG contrast ratio between foreground and an
// opaque background. A translucent foreground is composited over the
// background first.
func ContrastRatio(foreground, background argb.Color) (float64, error) {
	if !background.IsOpaque() {
		return 0, ErrTranslucentBackground
	}
	if !foreground.IsOpaque() {
		foreground = Composite(foreground, background)
	}

	foregroundLuminance := Luminance(foreground) + 0.05
	backgroundLuminance := Luminance(background) + 0.05

	return max(foregroundLuminance, backgroundLuminance) / min(foregroundLuminance, backgroundLuminance), nil
}

// MinimumAlpha finds the smallest alpha for foreground that keeps its
// contrast against background at or above minContrastRatio. ok is false
// when even a fully opaque foreground falls short.
func MinimumAlpha(foreground, background argb.Color, minContrastRatio float64) (alpha uint8, ok bool, err error) {
	if !background.IsOpaque() {
		return 0, false, ErrTranslucentBackground
	}

	opaqueRatio, err := ContrastRatio(SetAlphaComponent(foreground, 0xFF), background)
	if err != nil {
		return 0, false, err
	}
	if opaqueRatio < minContrastRatio {
		return 0, false, nil
	}

	minAlpha := 0
	maxAlpha := 255
	for iteration := 0; iteration <= minAlphaSearchMaxIterations && maxAlpha-minAlpha > minAlphaSearchPrecision; iteration++ {
		testAlpha := (minAlpha + maxAlpha) / 2

		ratio, err := ContrastRatio(SetAlphaComponent(foreground, uint8(testAlpha)), background)
		if err != nil {
			return 0, false, err
		}

		if ratio < minContrastRatio {
			minAlpha = testAlpha
		} else {
			maxAlpha = testAlpha
		}
	}

	return uint8(maxAlpha), true, nil
}

func compositeAlpha(foregroundAlpha, backgroundAlpha int) int {
	return 0xFF - ((0xFF-backgroundAlpha)*(0xFF-foregroundAlpha))/0xFF
}

func compositeComponent(foregroundChannel, foregroundAlpha, backgroundChannel, backgroundAlpha, alpha int) uint8 {
	if alpha == 0 {
		return 0
	}
	return uint8((0xFF*foregroundChannel*foregroundAlpha + backgroundChannel*backgroundAlpha*(0xFF-foregroundAlpha)) / (alpha * 0xFF))
}

func expandGamma(channel uint8) float64 {
	scaled := float64(channel) / 255
	if scaled < 0.04045 {
		return scaled / 12.92
	}
	return math.Pow((scaled+0.055)/1.055, 2.4)
}

func unitToByte(value float64) uint8 {
	return uint8(math.Round(constrain(value, 0, 1) * 255))
}

func constrain[T float32 | float64](value, low, high T) T {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
