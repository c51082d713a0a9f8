// Package swatch defines a representative color produced by quantization
// together with the number of pixels it stands for.
package swatch

import (
	"fmt"
	"sync"

	"vibrance/internal/argb"
	"vibrance/internal/colorutil"
)

const (
	minContrastTitleText = 3.0
	minContrastBodyText  = 4.5
)

// Swatch is a color plus its pixel population. HSL and text colors are
// derived on first use and memoized, so a Swatch is safe to read from
// several goroutines.
type Swatch struct {
	red        uint8
	green      uint8
	blue       uint8
	rgb        argb.Color
	population int

	hslOnce sync.Once
	hsl     [3]float32

	textOnce  sync.Once
	titleText argb.Color
	bodyText  argb.Color
}

// New creates a swatch for rgb. The alpha octet is forced to opaque; text
// colors are measured against the swatch as a solid background.
func New(rgb argb.Color, population int) *Swatch {
	if population < 0 {
		population = 0
	}

	opaque := rgb.WithAlpha(0xFF)
	return &Swatch{
		red:        opaque.Red(),
		green:      opaque.Green(),
		blue:       opaque.Blue(),
		rgb:        opaque,
		population: population,
	}
}

func (s *Swatch) RGB() argb.Color {
	return s.rgb
}

func (s *Swatch) Red() uint8 {
	return s.red
}

func (s *Swatch) Green() uint8 {
	return s.green
}

func (s *Swatch) Blue() uint8 {
	return s.blue
}

// Population is the number of sampled pixels this swatch represents.
func (s *Swatch) Population() int {
	return s.population
}

// HSL returns hue [0, 360), saturation [0, 1] and lightness [0, 1].
func (s *Swatch) HSL() [3]float32 {
	s.hslOnce.Do(func() {
		s.hsl = colorutil.RGBToHSL(s.red, s.green, s.blue)
	})
	return s.hsl
}

// TitleTextColor returns white or black, with the smallest alpha that keeps
// a contrast ratio of at least 3.0 over this swatch.
func (s *Swatch) TitleTextColor() argb.Color {
	s.ensureTextColors()
	return s.titleText
}

// BodyTextColor is like TitleTextColor with a minimum contrast of 4.5.
func (s *Swatch) BodyTextColor() argb.Color {
	s.ensureTextColors()
	return s.bodyText
}

func (s *Swatch) Hex() string {
	return s.rgb.Hex()
}

// Equal reports whether both swatches carry the same color and population.
func (s *Swatch) Equal(other *Swatch) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.rgb == other.rgb && s.population == other.population
}

func (s *Swatch) String() string {
	hsl := s.HSL()
	return fmt.Sprintf(
		"Swatch %s [HSL: %.1f, %.3f, %.3f] [Population: %d] [Title Text: %s] [Body Text: %s]",
		s.rgb.Hex(),
		hsl[0], hsl[1], hsl[2],
		s.population,
		s.TitleTextColor(),
		s.BodyTextColor(),
	)
}

func (s *Swatch) ensureTextColors() {
	s.textOnce.Do(func() {
		lightBodyAlpha, lightBodyOK := solveAlpha(argb.White, s.rgb, minContrastBodyText)
		lightTitleAlpha, lightTitleOK := solveAlpha(argb.White, s.rgb, minContrastTitleText)

		if lightBodyOK && lightTitleOK {
			s.bodyText = argb.White.WithAlpha(lightBodyAlpha)
			s.titleText = argb.White.WithAlpha(lightTitleAlpha)
			return
		}

		darkBodyAlpha, darkBodyOK := solveAlpha(argb.Black, s.rgb, minContrastBodyText)
		darkTitleAlpha, darkTitleOK := solveAlpha(argb.Black, s.rgb, minContrastTitleText)

		if darkBodyOK && darkTitleOK {
			s.bodyText = argb.Black.WithAlpha(darkBodyAlpha)
			s.titleText = argb.Black.WithAlpha(darkTitleAlpha)
			return
		}

		// No single base color satisfies both roles; pick per role.
		if lightBodyOK {
			s.bodyText = argb.White.WithAlpha(lightBodyAlpha)
		} else {
			s.bodyText = argb.Black.WithAlpha(darkBodyAlpha)
		}
		if lightTitleOK {
			s.titleText = argb.White.WithAlpha(lightTitleAlpha)
		} else {
			s.titleText = argb.Black.WithAlpha(darkTitleAlpha)
		}
	})
}

func solveAlpha(foreground, background argb.Color, minContrastRatio float64) (uint8, bool) {
	alpha, ok, err := colorutil.MinimumAlpha(foreground, background, minContrastRatio)
	if err != nil {
		return 0, false
	}
	return alpha, ok
}
