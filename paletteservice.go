package main

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"vibrance/internal/imagesource"
	"vibrance/internal/palette"
)

const defaultPaletteCacheEntries = 64

// PaletteOptions controls a single palette generation. Zero sizes disable
// the corresponding downscale step.
type PaletteOptions struct {
	MaxColors      int
	ResizeArea     int
	MaxDimension   int
	Region         image.Rectangle
	DefaultFilter  bool
	AlphaThreshold int
	Workers        int
}

// PaletteResult is a generated palette together with the source it was
// built from.
type PaletteResult struct {
	Source  imagesource.Source
	Width   int
	Height  int
	Palette *palette.Palette
	Elapsed time.Duration
}

type paletteCacheEntry struct {
	result            *PaletteResult
	sourceModUnixNano int64
}

type imageLoader func(path string) (image.Image, imagesource.Source, error)

// PaletteService generates palettes for image files and keeps the most
// recent results. Entries are dropped when the source file's modification
// time changes.
type PaletteService struct {
	logger  *slog.Logger
	load    imageLoader
	cacheMu sync.Mutex
	cache   *lru.Cache
	group   singleflight.Group
}

func NewPaletteService(logger *slog.Logger, cacheEntries int) *PaletteService {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheEntries <= 0 {
		cacheEntries = defaultPaletteCacheEntries
	}

	return &PaletteService{
		logger: logger,
		load:   imagesource.Load,
		cache:  lru.New(cacheEntries),
	}
}

func (s *PaletteService) Generate(path string, options PaletteOptions) (*PaletteResult, error) {
	source, err := imagesource.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("resolve image: %w", err)
	}
	sourceModUnixNano := source.ModTime.UnixNano()

	cacheKey := buildPaletteCacheKey(source.Path, options)
	if cached, ok := s.loadCachedPalette(cacheKey, sourceModUnixNano); ok {
		s.logger.Debug("palette cache hit", "path", source.Path)
		return cached, nil
	}

	flightKey := fmt.Sprintf("%s|mt:%d", cacheKey, sourceModUnixNano)
	value, err := s.group.Do(flightKey, func() (interface{}, error) {
		if cached, ok := s.loadCachedPalette(cacheKey, sourceModUnixNano); ok {
			return cached, nil
		}

		result, err := s.generate(source, options)
		if err != nil {
			return nil, err
		}

		s.storeCachedPalette(cacheKey, sourceModUnixNano, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result, ok := value.(*PaletteResult)
	if !ok {
		return nil, errors.New("unexpected palette result")
	}
	return result, nil
}

func (s *PaletteService) generate(source imagesource.Source, options PaletteOptions) (*PaletteResult, error) {
	started := time.Now()

	img, loaded, err := s.load(source.Path)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	builder := palette.FromImage(img).
		MaximumColorCount(options.MaxColors).
		ResizeImageArea(options.ResizeArea).
		ResizeMaxDimension(options.MaxDimension).
		AlphaThreshold(options.AlphaThreshold).
		WorkerCount(options.Workers)
	if !options.DefaultFilter {
		builder.ClearFilters()
	}
	if !options.Region.Empty() {
		builder.Region(options.Region)
	}

	generated, err := builder.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate palette: %w", err)
	}

	loaded.ModTime = source.ModTime
	result := &PaletteResult{
		Source:  loaded,
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Palette: generated,
		Elapsed: time.Since(started),
	}

	s.logger.Debug("palette generated",
		"path", source.Path,
		"kind", loaded.Kind,
		"format", loaded.Format,
		"swatches", len(generated.Swatches()),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

func buildPaletteCacheKey(path string, options PaletteOptions) string {
	return fmt.Sprintf(
		"%s|cc:%d|ra:%d|md:%d|rg:%s|df:%t|at:%d|w:%d",
		path,
		options.MaxColors,
		options.ResizeArea,
		options.MaxDimension,
		options.Region,
		options.DefaultFilter,
		options.AlphaThreshold,
		options.Workers,
	)
}

func (s *PaletteService) loadCachedPalette(cacheKey string, sourceModUnixNano int64) (*PaletteResult, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	value, ok := s.cache.Get(cacheKey)
	if !ok {
		return nil, false
	}

	entry := value.(paletteCacheEntry)
	if entry.sourceModUnixNano != sourceModUnixNano {
		s.cache.Remove(cacheKey)
		return nil, false
	}

	return entry.result, true
}

func (s *PaletteService) storeCachedPalette(cacheKey string, sourceModUnixNano int64, result *PaletteResult) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache.Add(cacheKey, paletteCacheEntry{
		result:            result,
		sourceModUnixNano: sourceModUnixNano,
	})
}

// CachedEntries reports how many palettes are currently cached.
func (s *PaletteService) CachedEntries() int {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	return s.cache.Len()
}
