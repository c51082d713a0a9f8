// Package quantizer reduces the colors of an image to a bounded set of
// swatches.
//
// It is a median-cut variant tuned for picking distinct colors rather
// than representative ones: the 5-bit color cube is cut into boxes and
// the box with the largest volume, not the largest population, is always
// split next.
package quantizer

import (
	"math"
	"slices"

	"github.com/emirpasic/gods/trees/binaryheap"

	"vibrance/internal/argb"
	"vibrance/internal/colorutil"
	"vibrance/internal/swatch"
)

const (
	quantizeWordWidth = 5
	quantizeWordMask  = (1 << quantizeWordWidth) - 1
	histogramSize     = 1 << (quantizeWordWidth * 3)
)

type component int

const (
	componentRed component = iota
	componentGreen
	componentBlue
)

// Filter decides whether a color may appear in the quantized output.
type Filter interface {
	Allowed(rgb argb.Color, hsl [3]float32) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(rgb argb.Color, hsl [3]float32) bool

func (f FilterFunc) Allowed(rgb argb.Color, hsl [3]float32) bool {
	return f(rgb, hsl)
}

type Quantizer struct {
	colors    []int
	histogram []int
	filters   []Filter
	swatches  []*swatch.Swatch
}

// New quantizes pixels down to at most maxColors swatches. Alpha is
// ignored. A maxColors below one is treated as one.
func New(pixels []argb.Color, maxColors int, filters []Filter) *Quantizer {
	if maxColors < 1 {
		maxColors = 1
	}

	q := &Quantizer{
		histogram: make([]int, histogramSize),
		filters:   filters,
	}

	for _, pixel := range pixels {
		q.histogram[quantizeFromRGB888(pixel)]++
	}

	distinctColorCount := 0
	for color, count := range q.histogram {
		if count > 0 && q.shouldIgnoreColor(approximateToRGB888(color)) {
			q.histogram[color] = 0
		}
		if q.histogram[color] > 0 {
			distinctColorCount++
		}
	}

	q.colors = make([]int, 0, distinctColorCount)
	for color, count := range q.histogram {
		if count > 0 {
			q.colors = append(q.colors, color)
		}
	}

	if distinctColorCount <= maxColors {
		q.swatches = make([]*swatch.Swatch, 0, distinctColorCount)
		for _, color := range q.colors {
			q.swatches = append(q.swatches, swatch.New(approximateToRGB888(color), q.histogram[color]))
		}
		return q
	}

	q.swatches = q.quantizePixels(maxColors)
	return q
}

// Swatches returns the quantized colors. The slice is owned by the
// quantizer; callers must not modify it.
func (q *Quantizer) Swatches() []*swatch.Swatch {
	return q.swatches
}

func (q *Quantizer) quantizePixels(maxColors int) []*swatch.Swatch {
	queue := binaryheap.NewWith(byVolumeDescending)
	queue.Push(q.newVbox(0, len(q.colors)-1))

	q.splitBoxes(queue, maxColors)

	return q.generateAverageColors(queue)
}

// splitBoxes pops the largest box and splits it until the queue holds
// maxSize boxes or the largest remaining box holds a single color.
func (q *Quantizer) splitBoxes(queue *binaryheap.Heap, maxSize int) {
	for queue.Size() < maxSize {
		value, ok := queue.Pop()
		if !ok {
			return
		}

		box := value.(*vbox)
		if !box.canSplit() {
			queue.Push(box)
			return
		}

		queue.Push(q.splitBox(box))
		queue.Push(box)
	}
}

func (q *Quantizer) generateAverageColors(queue *binaryheap.Heap) []*swatch.Swatch {
	swatches := make([]*swatch.Swatch, 0, queue.Size())
	for {
		value, ok := queue.Pop()
		if !ok {
			break
		}

		average := q.averageColor(value.(*vbox))
		// Averaging can land on a color the filters reject even though
		// every member of the box passed.
		if q.shouldIgnoreSwatch(average) {
			continue
		}
		swatches = append(swatches, average)
	}
	return swatches
}

func (q *Quantizer) shouldIgnoreColor(rgb argb.Color) bool {
	return q.rejected(rgb, colorutil.ColorToHSL(rgb))
}

func (q *Quantizer) shouldIgnoreSwatch(s *swatch.Swatch) bool {
	return q.rejected(s.RGB(), s.HSL())
}

func (q *Quantizer) rejected(rgb argb.Color, hsl [3]float32) bool {
	for _, filter := range q.filters {
		if !filter.Allowed(rgb, hsl) {
			return true
		}
	}
	return false
}

type vbox struct {
	lowerIndex int
	upperIndex int
	population int

	minRed   int
	maxRed   int
	minGreen int
	maxGreen int
	minBlue  int
	maxBlue  int
}

func byVolumeDescending(a, b interface{}) int {
	left := a.(*vbox)
	right := b.(*vbox)

	leftVolume := left.volume()
	rightVolume := right.volume()
	switch {
	case leftVolume > rightVolume:
		return -1
	case leftVolume < rightVolume:
		return 1
	}
	return left.lowerIndex - right.lowerIndex
}

func (q *Quantizer) newVbox(lowerIndex, upperIndex int) *vbox {
	box := &vbox{lowerIndex: lowerIndex, upperIndex: upperIndex}
	q.fitBox(box)
	return box
}

func (b *vbox) volume() int {
	return (b.maxRed - b.minRed + 1) * (b.maxGreen - b.minGreen + 1) * (b.maxBlue - b.minBlue + 1)
}

func (b *vbox) colorCount() int {
	return 1 + b.upperIndex - b.lowerIndex
}

func (b *vbox) canSplit() bool {
	return b.colorCount() > 1
}

// fitBox recomputes the bounds of box so they tightly fit its colors.
func (q *Quantizer) fitBox(box *vbox) {
	box.minRed, box.minGreen, box.minBlue = math.MaxInt, math.MaxInt, math.MaxInt
	box.maxRed, box.maxGreen, box.maxBlue = math.MinInt, math.MinInt, math.MinInt
	box.population = 0

	for _, color := range q.colors[box.lowerIndex : box.upperIndex+1] {
		box.population += q.histogram[color]

		red := quantizedRed(color)
		green := quantizedGreen(color)
		blue := quantizedBlue(color)

		box.minRed = min(box.minRed, red)
		box.maxRed = max(box.maxRed, red)
		box.minGreen = min(box.minGreen, green)
		box.maxGreen = max(box.maxGreen, green)
		box.minBlue = min(box.minBlue, blue)
		box.maxBlue = max(box.maxBlue, blue)
	}
}

// splitBox cuts box at its median and returns the upper half. box keeps
// the lower half.
func (q *Quantizer) splitBox(box *vbox) *vbox {
	if !box.canSplit() {
		panic("quantizer: cannot split a box with only one color")
	}

	splitPoint := q.findSplitPoint(box)
	upper := q.newVbox(splitPoint+1, box.upperIndex)

	box.upperIndex = splitPoint
	q.fitBox(box)

	return upper
}

func (b *vbox) longestColorDimension() component {
	redLength := b.maxRed - b.minRed
	greenLength := b.maxGreen - b.minGreen
	blueLength := b.maxBlue - b.minBlue

	if redLength >= greenLength && redLength >= blueLength {
		return componentRed
	}
	if greenLength >= blueLength {
		return componentGreen
	}
	return componentBlue
}

// findSplitPoint sorts the box along its longest dimension and returns
// the index at which the accumulated population first reaches half of the
// box. The upper index is never returned so both halves are non-empty.
func (q *Quantizer) findSplitPoint(box *vbox) int {
	dimension := box.longestColorDimension()
	colors := q.colors[box.lowerIndex : box.upperIndex+1]

	// Moving the chosen channel into the most significant word lets a plain
	// integer sort order the colors by that channel.
	modifySignificantOctet(colors, dimension)
	slices.Sort(colors)
	modifySignificantOctet(colors, dimension)

	midpoint := box.population / 2
	count := 0
	for offset, color := range colors {
		count += q.histogram[color]
		if count >= midpoint {
			return min(box.upperIndex-1, box.lowerIndex+offset)
		}
	}

	return box.lowerIndex
}

func (q *Quantizer) averageColor(box *vbox) *swatch.Swatch {
	var redSum, greenSum, blueSum, totalPopulation int

	for _, color := range q.colors[box.lowerIndex : box.upperIndex+1] {
		population := q.histogram[color]

		totalPopulation += population
		redSum += population * quantizedRed(color)
		greenSum += population * quantizedGreen(color)
		blueSum += population * quantizedBlue(color)
	}

	redMean := int(math.Round(float64(redSum) / float64(totalPopulation)))
	greenMean := int(math.Round(float64(greenSum) / float64(totalPopulation)))
	blueMean := int(math.Round(float64(blueSum) / float64(totalPopulation)))

	return swatch.New(approximateComponentsToRGB888(redMean, greenMean, blueMean), totalPopulation)
}

// modifySignificantOctet swaps the requested channel into the most
// significant word of each packed 5-bit color. Applying it twice restores
// the original packing.
func modifySignificantOctet(colors []int, dimension component) {
	switch dimension {
	case componentRed:
	case componentGreen:
		for index, color := range colors {
			colors[index] = quantizedGreen(color)<<(quantizeWordWidth*2) |
				quantizedRed(color)<<quantizeWordWidth |
				quantizedBlue(color)
		}
	case componentBlue:
		for index, color := range colors {
			colors[index] = quantizedBlue(color)<<(quantizeWordWidth*2) |
				quantizedGreen(color)<<quantizeWordWidth |
				quantizedRed(color)
		}
	}
}

func quantizeFromRGB888(color argb.Color) int {
	red := modifyWordWidth(int(color.Red()), 8, quantizeWordWidth)
	green := modifyWordWidth(int(color.Green()), 8, quantizeWordWidth)
	blue := modifyWordWidth(int(color.Blue()), 8, quantizeWordWidth)
	return red<<(quantizeWordWidth*2) | green<<quantizeWordWidth | blue
}

func approximateToRGB888(color int) argb.Color {
	return approximateComponentsToRGB888(quantizedRed(color), quantizedGreen(color), quantizedBlue(color))
}

func approximateComponentsToRGB888(red, green, blue int) argb.Color {
	return argb.RGB(
		uint8(modifyWordWidth(red, quantizeWordWidth, 8)),
		uint8(modifyWordWidth(green, quantizeWordWidth, 8)),
		uint8(modifyWordWidth(blue, quantizeWordWidth, 8)),
	)
}

func quantizedRed(color int) int {
	return (color >> (quantizeWordWidth * 2)) & quantizeWordMask
}

func quantizedGreen(color int) int {
	return (color >> quantizeWordWidth) & quantizeWordMask
}

func quantizedBlue(color int) int {
	return color & quantizeWordMask
}

// modifyWordWidth narrows a value by keeping its most significant bits, or
// widens it by replicating its top bits into the new low bits, so 31 at 5
// bits becomes 255 at 8 bits.
func modifyWordWidth(value, currentWidth, targetWidth int) int {
	var result int
	if targetWidth > currentWidth {
		shift := targetWidth - currentWidth
		result = value<<shift | value>>max(currentWidth-shift, 0)
	} else {
		result = value >> (currentWidth - targetWidth)
	}
	return result & ((1 << targetWidth) - 1)
}
