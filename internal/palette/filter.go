package palette

import (
	"vibrance/internal/argb"
	"vibrance/internal/quantizer"
)

const (
	blackMaxLightness = 0.05
	whiteMinLightness = 0.95
)

// DefaultFilter rejects near-black, near-white and the skin-tone band of
// desaturated reds and oranges.
var DefaultFilter quantizer.Filter = quantizer.FilterFunc(allowedByDefault)

func allowedByDefault(_ argb.Color, hsl [3]float32) bool {
	return !isWhite(hsl) && !isBlack(hsl) && !isNearRedILine(hsl)
}

func isBlack(hsl [3]float32) bool {
	return hsl[2] <= blackMaxLightness
}

func isWhite(hsl [3]float32) bool {
	return hsl[2] >= whiteMinLightness
}

func isNearRedILine(hsl [3]float32) bool {
	return hsl[0] >= 10 && hsl[0] <= 37 && hsl[1] <= 0.82
}
