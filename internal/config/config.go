package config

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

const (
	EnvColors   = "VIBRANCE_COLORS"
	EnvLogLevel = "VIBRANCE_LOG_LEVEL"

	defaultColors    = 16
	defaultArea      = 112 * 112
	defaultCacheSize = 64
	maxColors        = 256
	maxWorkers       = 12
)

var (
	ErrNoInput       = errors.New("at least one image path is required")
	ErrInvalidRegion = errors.New("region must be x0,y0,x1,y1")
)

// Config is the resolved command line.
type Config struct {
	Paths          []string
	MaxColors      int
	ResizeArea     int
	MaxDimension   int
	Region         image.Rectangle
	DefaultFilter  bool
	JSON           bool
	Watch          bool
	LogLevel       slog.Level
	Workers        int
	CacheSize      int
	AlphaThreshold int
}

// Resolve parses args (without the program name) over defaults taken from
// the environment. getenv is usually os.Getenv.
func Resolve(appName string, args []string, getenv func(string) string, output io.Writer) (Config, error) {
	defaults, err := fromEnv(getenv)
	if err != nil {
		return Config{}, err
	}

	var (
		cfg       Config
		region    string
		noFilter  bool
		levelText string
	)

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] <image>...\n", appName)
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.MaxColors, "colors", defaults.MaxColors, "maximum number of swatches to quantize")
	fs.IntVar(&cfg.ResizeArea, "area", defaultArea, "downscale images to at most this many pixels (0 disables)")
	fs.IntVar(&cfg.MaxDimension, "max-dimension", 0, "downscale the longest side to this size when -area is 0")
	fs.StringVar(&region, "region", "", "restrict sampling to x0,y0,x1,y1")
	fs.BoolVar(&noFilter, "no-default-filter", false, "keep near-black, near-white and skin-tone colors")
	fs.BoolVar(&cfg.JSON, "json", false, "print palettes as JSON")
	fs.BoolVar(&cfg.Watch, "watch", false, "regenerate when an input file changes")
	fs.StringVar(&levelText, "log-level", defaults.LogLevel.String(), "log level: debug, info, warn or error")
	fs.IntVar(&cfg.Workers, "workers", 0, "sampling workers per image (0 picks from GOMAXPROCS)")
	fs.IntVar(&cfg.CacheSize, "cache-size", defaultCacheSize, "palettes kept in memory in watch mode")
	fs.IntVar(&cfg.AlphaThreshold, "alpha-threshold", 0, "skip pixels with alpha below this value (0..255)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.DefaultFilter = !noFilter
	cfg.Paths = fs.Args()
	if len(cfg.Paths) == 0 {
		return Config{}, ErrNoInput
	}

	if cfg.LogLevel, err = parseLevel(levelText); err != nil {
		return Config{}, err
	}

	if region != "" {
		if cfg.Region, err = ParseRegion(region); err != nil {
			return Config{}, err
		}
	}

	return cfg.normalized(), nil
}

func fromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{MaxColors: defaultColors, LogLevel: slog.LevelInfo}
	if getenv == nil {
		return cfg, nil
	}

	if value := strings.TrimSpace(getenv(EnvColors)); value != "" {
		colors, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvColors, err)
		}
		cfg.MaxColors = colors
	}

	if value := strings.TrimSpace(getenv(EnvLogLevel)); value != "" {
		level, err := parseLevel(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// ParseRegion reads "x0,y0,x1,y1" into a rectangle.
func ParseRegion(value string) (image.Rectangle, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, ErrInvalidRegion
	}

	var coords [4]int
	for index, part := range parts {
		coord, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%w: %w", ErrInvalidRegion, err)
		}
		coords[index] = coord
	}

	rect := image.Rect(coords[0], coords[1], coords[2], coords[3])
	if rect.Empty() {
		return image.Rectangle{}, ErrInvalidRegion
	}
	return rect, nil
}

func (c Config) normalized() Config {
	normalized := c
	normalized.MaxColors = clampInt(normalized.MaxColors, 1, maxColors)
	if normalized.ResizeArea < 0 {
		normalized.ResizeArea = 0
	}
	if normalized.MaxDimension < 0 {
		normalized.MaxDimension = 0
	}
	normalized.Workers = clampInt(normalized.Workers, 0, maxWorkers)
	normalized.CacheSize = clampInt(normalized.CacheSize, 1, 4096)
	normalized.AlphaThreshold = clampInt(normalized.AlphaThreshold, 0, 255)
	return normalized
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
