package palette

import (
	"errors"
	"image"
	imagedraw "image/draw"
	"math"
	"runtime"
	"sync"

	"golang.org/x/image/draw"

	"vibrance/internal/argb"
	"vibrance/internal/quantizer"
	"vibrance/internal/target"
)

const (
	DefaultResizeImageArea    = 112 * 112
	DefaultMaximumColorCount  = 16
	defaultWorkerCap          = 8
	maxWorkerCap              = 12
	defaultResizeMaxDimension = -1
)

var (
	ErrInvalidDimensions  = errors.New("image dimensions must be positive")
	ErrPixelCountMismatch = errors.New("pixel count does not match width*height")
	ErrRegionOutsideImage = errors.New("region must intersect the image")
	ErrInvalidColorCount  = errors.New("maximum color count must be at least 1")
)

// Builder configures and runs palette generation for one image.
type Builder struct {
	img    image.Image
	width  int
	height int
	pixels []argb.Color

	maxColors          int
	resizeArea         int
	resizeMaxDimension int
	region             image.Rectangle
	alphaThreshold     int
	workerCount        int

	filters []quantizer.Filter
	targets []*target.Target

	err error
}

// FromPixels starts a palette for a row-major buffer of packed ARGB
// pixels. The length of pixels must equal width*height; this is checked
// by Generate.
func FromPixels(width, height int, pixels []argb.Color) *Builder {
	b := newBuilder()
	b.width = width
	b.height = height
	b.pixels = pixels
	return b
}

// FromImage starts a palette for any decoded image.
func FromImage(img image.Image) *Builder {
	b := newBuilder()
	b.img = img
	if img != nil {
		b.width = img.Bounds().Dx()
		b.height = img.Bounds().Dy()
	}
	return b
}

func newBuilder() *Builder {
	return &Builder{
		maxColors:          DefaultMaximumColorCount,
		resizeArea:         DefaultResizeImageArea,
		resizeMaxDimension: defaultResizeMaxDimension,
		filters:            []quantizer.Filter{DefaultFilter},
		targets:            target.Defaults(),
	}
}

// MaximumColorCount sets the upper bound on the number of swatches the
// quantizer produces. Larger values are slower but find more colors.
func (b *Builder) MaximumColorCount(colors int) *Builder {
	b.maxColors = colors
	return b
}

// ResizeImageArea scales the image down so its area is at most area pixels
// before sampling. A value <= 0 disables area-based scaling.
func (b *Builder) ResizeImageArea(area int) *Builder {
	b.resizeArea = area
	return b
}

// ResizeMaxDimension scales the image so its longest side is at most
// dimension. It only applies when area-based scaling is disabled.
func (b *Builder) ResizeMaxDimension(dimension int) *Builder {
	b.resizeMaxDimension = dimension
	return b
}

// Region restricts sampling to rect, given in the image's coordinates. The
// rectangle is clipped to the image bounds. The last call wins.
func (b *Builder) Region(rect image.Rectangle) *Builder {
	bounds := b.sourceBounds()
	clipped := rect.Canon().Intersect(bounds)
	if clipped.Empty() {
		b.region = image.Rectangle{}
		b.err = ErrRegionOutsideImage
		return b
	}
	b.region = clipped
	if errors.Is(b.err, ErrRegionOutsideImage) {
		b.err = nil
	}
	return b
}

// ClearRegion resets sampling to the whole image.
func (b *Builder) ClearRegion() *Builder {
	b.region = image.Rectangle{}
	if errors.Is(b.err, ErrRegionOutsideImage) {
		b.err = nil
	}
	return b
}

// AlphaThreshold skips pixels whose alpha is below threshold. Zero samples
// every pixel.
func (b *Builder) AlphaThreshold(threshold int) *Builder {
	b.alphaThreshold = clampInt(threshold, 0, 255)
	return b
}

// WorkerCount bounds the goroutines used to sample pixels. Zero picks a
// value from GOMAXPROCS.
func (b *Builder) WorkerCount(workers int) *Builder {
	b.workerCount = workers
	return b
}

func (b *Builder) AddFilter(filter quantizer.Filter) *Builder {
	if filter != nil {
		b.filters = append(b.filters, filter)
	}
	return b
}

// ClearFilters removes every filter, including DefaultFilter.
func (b *Builder) ClearFilters() *Builder {
	b.filters = nil
	return b
}

// AddTarget appends t unless it is already present.
func (b *Builder) AddTarget(t *target.Target) *Builder {
	if t == nil {
		return b
	}
	for _, existing := range b.targets {
		if existing == t {
			return b
		}
	}
	b.targets = append(b.targets, t)
	return b
}

// ClearTargets removes every target, including the six defaults.
func (b *Builder) ClearTargets() *Builder {
	b.targets = nil
	return b
}

// Generate samples the image, quantizes it and selects a swatch for each
// target. An image whose pixels are all filtered out yields an empty
// palette, not an error.
func (b *Builder) Generate() (*Palette, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.maxColors < 1 {
		return nil, ErrInvalidColorCount
	}

	source, err := b.source()
	if err != nil {
		return nil, err
	}

	scaled := scaleDown(source, b.resizeArea, b.resizeMaxDimension)
	region := scaleRegion(b.relativeRegion(), source.Bounds(), scaled.Bounds())

	pixels := samplePixels(scaled, region, b.alphaThreshold, normalizeWorkerCount(b.workerCount, region.Dy()))
	quantized := quantizer.New(pixels, b.maxColors, b.filters)

	return newPalette(quantized.Swatches(), b.targets), nil
}

func (b *Builder) sourceBounds() image.Rectangle {
	if b.img != nil {
		return b.img.Bounds()
	}
	return image.Rect(0, 0, b.width, b.height)
}

// relativeRegion converts the configured region into coordinates relative
// to the source's top-left corner.
func (b *Builder) relativeRegion() image.Rectangle {
	if b.region.Empty() {
		return image.Rectangle{}
	}
	return b.region.Sub(b.sourceBounds().Min)
}

func (b *Builder) source() (*image.NRGBA, error) {
	if b.width <= 0 || b.height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if b.img != nil {
		return toNRGBA(b.img), nil
	}
	if len(b.pixels) != b.width*b.height {
		return nil, ErrPixelCountMismatch
	}
	return pixelsToNRGBA(b.width, b.height, b.pixels), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	imagedraw.Draw(dst, dst.Bounds(), img, bounds.Min, imagedraw.Src)
	return dst
}

func pixelsToNRGBA(width, height int, pixels []argb.Color) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for index, pixel := range pixels {
		offset := index * 4
		dst.Pix[offset] = pixel.Red()
		dst.Pix[offset+1] = pixel.Green()
		dst.Pix[offset+2] = pixel.Blue()
		dst.Pix[offset+3] = pixel.Alpha()
	}
	return dst
}

// scaleDown shrinks src so that its area is at most resizeArea, or, when
// area scaling is off, its longest side is at most resizeMaxDimension.
// Images already within bounds are returned unchanged.
func scaleDown(src *image.NRGBA, resizeArea int, resizeMaxDimension int) *image.NRGBA {
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()

	scaleRatio := -1.0
	if resizeArea > 0 {
		area := width * height
		if area > resizeArea {
			scaleRatio = math.Sqrt(float64(resizeArea) / float64(area))
		}
	} else if resizeMaxDimension > 0 {
		maxDimension := max(width, height)
		if maxDimension > resizeMaxDimension {
			scaleRatio = float64(resizeMaxDimension) / float64(maxDimension)
		}
	}

	if scaleRatio <= 0 {
		return src
	}

	targetWidth := max(int(math.Ceil(float64(width)*scaleRatio)), 1)
	targetHeight := max(int(math.Ceil(float64(height)*scaleRatio)), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// scaleRegion maps region from source to scaled coordinates. An empty
// region selects the whole scaled image.
func scaleRegion(region image.Rectangle, sourceBounds image.Rectangle, scaledBounds image.Rectangle) image.Rectangle {
	if region.Empty() {
		return scaledBounds
	}
	if sourceBounds.Dx() == scaledBounds.Dx() && sourceBounds.Dy() == scaledBounds.Dy() {
		return region.Intersect(scaledBounds)
	}

	scaleX := float64(scaledBounds.Dx()) / float64(sourceBounds.Dx())
	scaleY := float64(scaledBounds.Dy()) / float64(sourceBounds.Dy())
	scaled := image.Rect(
		int(math.Floor(float64(region.Min.X)*scaleX)),
		int(math.Floor(float64(region.Min.Y)*scaleY)),
		min(int(math.Ceil(float64(region.Max.X)*scaleX)), scaledBounds.Dx()),
		min(int(math.Ceil(float64(region.Max.Y)*scaleY)), scaledBounds.Dy()),
	)
	if scaled.Empty() {
		return image.Rect(scaled.Min.X, scaled.Min.Y, scaled.Min.X+1, scaled.Min.Y+1).Intersect(scaledBounds)
	}
	return scaled
}

// samplePixels packs every pixel of img inside region. Rows are split
// across workers, each filling its own buffer; buffers are joined in row
// order so the result does not depend on scheduling.
func samplePixels(img *image.NRGBA, region image.Rectangle, alphaThreshold int, workerCount int) []argb.Color {
	height := region.Dy()
	if height <= 0 || region.Dx() <= 0 {
		return nil
	}

	workers := clampInt(workerCount, 1, height)
	localPixels := make([][]argb.Color, workers)

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		startY, endY := splitRange(height, workers, worker)
		wg.Add(1)
		go func(workerIndex, start, end int) {
			defer wg.Done()
			local := make([]argb.Color, 0, (end-start)*region.Dx())

			for y := region.Min.Y + start; y < region.Min.Y+end; y++ {
				rowOffset := y*img.Stride + region.Min.X*4
				for x := 0; x < region.Dx(); x++ {
					offset := rowOffset + x*4
					alpha := img.Pix[offset+3]
					if int(alpha) < alphaThreshold {
						continue
					}
					local = append(local, argb.New(alpha, img.Pix[offset], img.Pix[offset+1], img.Pix[offset+2]))
				}
			}

			localPixels[workerIndex] = local
		}(worker, startY, endY)
	}

	wg.Wait()

	total := 0
	for _, local := range localPixels {
		total += len(local)
	}
	pixels := make([]argb.Color, 0, total)
	for _, local := range localPixels {
		pixels = append(pixels, local...)
	}
	return pixels
}

func normalizeWorkerCount(workers int, rows int) int {
	if workers <= 0 {
		defaultWorkers := runtime.GOMAXPROCS(0) - 1
		if defaultWorkers < 1 {
			defaultWorkers = 1
		}
		workers = min(defaultWorkers, defaultWorkerCap)
	}
	maxWorkers := max(1, min(runtime.GOMAXPROCS(0), maxWorkerCap))
	return clampInt(workers, 1, max(1, min(maxWorkers, rows)))
}

func splitRange(length int, workers int, workerIndex int) (int, int) {
	chunkSize := length / workers
	remainder := length % workers
	start := workerIndex*chunkSize + min(workerIndex, remainder)
	end := start + chunkSize
	if workerIndex < remainder {
		end++
	}
	return start, end
}

func clampInt(value int, minimum int, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

func clampFloat(value float64, minimum float64, maximum float64) float64 {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
