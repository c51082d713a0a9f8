package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vibrance/internal/imagesource"
)

func TestPaletteServiceCachesBySourceAndOptions(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, t.TempDir(), "cover.png")
	service, loads := newCountingService(t)
	options := testPaletteOptions()

	first, err := service.Generate(path, options)
	if err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	second, err := service.Generate(path, options)
	if err != nil {
		t.Fatalf("generate palette: %v", err)
	}

	if first != second {
		t.Fatal("expected cached result to be reused")
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("expected 1 load, got %d", got)
	}
	if first.Palette.DominantSwatch() == nil {
		t.Fatal("expected dominant swatch")
	}
	if first.Width != 64 || first.Height != 64 {
		t.Fatalf("unexpected dimensions: %dx%d", first.Width, first.Height)
	}
	if first.Source.Kind != imagesource.KindFile || first.Source.Format != "png" {
		t.Fatalf("unexpected source: %+v", first.Source)
	}

	options.MaxColors = 4
	if _, err := service.Generate(path, options); err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	if got := loads.Load(); got != 2 {
		t.Fatalf("expected different options to load again, got %d loads", got)
	}
	if got := service.CachedEntries(); got != 2 {
		t.Fatalf("expected 2 cached palettes, got %d", got)
	}

	options.AlphaThreshold = 128
	if _, err := service.Generate(path, options); err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	if got := loads.Load(); got != 3 {
		t.Fatalf("expected alpha threshold to be part of the cache key, got %d loads", got)
	}
}

func TestPaletteServiceAppliesAlphaThreshold(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			fill := color.NRGBA{R: 24, G: 144, B: 242, A: 255}
			if x >= 4 {
				fill = color.NRGBA{R: 198, G: 48, B: 59, A: 40}
			}
			img.SetNRGBA(x, y, fill)
		}
	}
	path := filepath.Join(t.TempDir(), "translucent.png")
	writeImageFile(t, path, img)

	service, _ := newCountingService(t)
	options := testPaletteOptions()

	all, err := service.Generate(path, options)
	if err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	if got := len(all.Palette.Swatches()); got != 2 {
		t.Fatalf("expected 2 swatches without threshold, got %d", got)
	}

	options.AlphaThreshold = 128
	opaque, err := service.Generate(path, options)
	if err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	swatches := opaque.Palette.Swatches()
	if len(swatches) != 1 || swatches[0].Population() != 32 {
		t.Fatalf("expected only the 32 opaque pixels, got %v", swatches)
	}
}

func TestPaletteServiceInvalidatesOnModTimeChange(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, t.TempDir(), "cover.png")
	service, loads := newCountingService(t)
	options := testPaletteOptions()

	if _, err := service.Generate(path, options); err != nil {
		t.Fatalf("generate palette: %v", err)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("touch image: %v", err)
	}

	result, err := service.Generate(path, options)
	if err != nil {
		t.Fatalf("generate palette: %v", err)
	}
	if got := loads.Load(); got != 2 {
		t.Fatalf("expected reload after modification, got %d loads", got)
	}
	if result.Source.ModTime.Unix() != later.Unix() {
		t.Fatalf("expected updated mod time, got %v", result.Source.ModTime)
	}
	if got := service.CachedEntries(); got != 1 {
		t.Fatalf("expected stale entry to be replaced, got %d entries", got)
	}
}

func TestPaletteServiceCollapsesConcurrentRequests(t *testing.T) {
	t.Parallel()

	path := writeTestPNG(t, t.TempDir(), "cover.png")
	service := NewPaletteService(slog.New(slog.NewTextHandler(io.Discard, nil)), 8)

	var loads atomic.Int32
	release := make(chan struct{})
	service.load = func(path string) (image.Image, imagesource.Source, error) {
		loads.Add(1)
		<-release
		return imagesource.Load(path)
	}

	const callers = 8
	results := make([]*PaletteResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for index := 0; index < callers; index++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index], errs[index] = service.Generate(path, testPaletteOptions())
		}(index)
	}

	close(release)
	wg.Wait()

	for index, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", index, err)
		}
		if results[index] != results[0] {
			t.Fatalf("caller %d received a different result", index)
		}
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}
}

func TestPaletteServiceReportsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	service, _ := newCountingService(t)

	if _, err := service.Generate(filepath.Join(dir, "missing.png"), testPaletteOptions()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	path := writeTestPNG(t, dir, "cover.png")
	options := testPaletteOptions()
	options.Region = image.Rect(500, 500, 600, 600)
	if _, err := service.Generate(path, options); err == nil {
		t.Fatal("expected region error")
	}
	if got := service.CachedEntries(); got != 0 {
		t.Fatalf("expected failures not to be cached, got %d entries", got)
	}
}

func newCountingService(t *testing.T) (*PaletteService, *atomic.Int32) {
	t.Helper()

	service := NewPaletteService(slog.New(slog.NewTextHandler(io.Discard, nil)), 8)
	loads := &atomic.Int32{}
	service.load = func(path string) (image.Image, imagesource.Source, error) {
		loads.Add(1)
		return imagesource.Load(path)
	}
	return service, loads
}

func testPaletteOptions() PaletteOptions {
	return PaletteOptions{
		MaxColors:     16,
		ResizeArea:    112 * 112,
		DefaultFilter: true,
	}
}

func writeTestPNG(t *testing.T, dir string, name string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	fills := []struct {
		rect image.Rectangle
		fill color.NRGBA
	}{
		{rect: image.Rect(0, 0, 32, 32), fill: color.NRGBA{R: 198, G: 48, B: 59, A: 255}},
		{rect: image.Rect(32, 0, 64, 32), fill: color.NRGBA{R: 24, G: 144, B: 242, A: 255}},
		{rect: image.Rect(0, 32, 32, 64), fill: color.NRGBA{R: 242, G: 188, B: 12, A: 255}},
		{rect: image.Rect(32, 32, 64, 64), fill: color.NRGBA{R: 36, G: 184, B: 92, A: 255}},
	}
	for _, f := range fills {
		for y := f.rect.Min.Y; y < f.rect.Max.Y; y++ {
			for x := f.rect.Min.X; x < f.rect.Max.X; x++ {
				img.SetNRGBA(x, y, f.fill)
			}
		}
	}

	path := filepath.Join(dir, name)
	writeImageFile(t, path, img)
	return path
}

func writeImageFile(t *testing.T, path string, img image.Image) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}
