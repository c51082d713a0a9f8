// Package imagesource resolves and decodes the images palettes are built
// from: plain image files and cover art embedded in audio files.
package imagesource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	"go.senan.xyz/taglib"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Kind string

const (
	KindFile     Kind = "file"
	KindEmbedded Kind = "embedded"
)

var (
	ErrPathRequired     = errors.New("image path is required")
	ErrDirectory        = errors.New("requested path is a directory")
	ErrNoEmbeddedImage  = errors.New("audio file has no embedded image")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

var audioExtensions = map[string]struct{}{
	".aac":  {},
	".aif":  {},
	".aiff": {},
	".alac": {},
	".flac": {},
	".m4a":  {},
	".mp3":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
	".wma":  {},
}

// Source describes where a decoded image came from.
type Source struct {
	Path    string    `json:"path"`
	Kind    Kind      `json:"kind"`
	Format  string    `json:"format,omitempty"`
	ModTime time.Time `json:"modTime"`
}

// IsAudio reports whether path names an audio container whose cover art
// should be used instead of the file itself.
func IsAudio(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Stat resolves path to an absolute file and reports its kind and
// modification time without decoding it.
func Stat(path string) (Source, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Source{}, ErrPathRequired
	}

	resolvedPath, err := filepath.Abs(filepath.Clean(trimmed))
	if err != nil {
		return Source{}, err
	}

	info, err := os.Stat(resolvedPath)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, ErrDirectory
	}

	kind := KindFile
	if IsAudio(resolvedPath) {
		kind = KindEmbedded
	}

	return Source{Path: resolvedPath, Kind: kind, ModTime: info.ModTime()}, nil
}

// Load decodes the image at path. Audio files yield their embedded cover.
func Load(path string) (image.Image, Source, error) {
	source, err := Stat(path)
	if err != nil {
		return nil, Source{}, err
	}

	var img image.Image
	switch source.Kind {
	case KindEmbedded:
		img, source.Format, err = decodeEmbedded(source.Path)
	default:
		img, source.Format, err = decodeFile(source.Path)
	}
	if err != nil {
		return nil, Source{}, err
	}

	return img, source, nil
}

func decodeFile(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	decoded, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", wrapFormatError(err))
	}

	return decoded, format, nil
}

func decodeEmbedded(path string) (image.Image, string, error) {
	imageData, err := taglib.ReadImage(path)
	if err != nil {
		return nil, "", fmt.Errorf("read embedded image: %w", err)
	}
	if len(imageData) == 0 {
		return nil, "", ErrNoEmbeddedImage
	}

	decoded, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, "", fmt.Errorf("decode embedded image: %w", wrapFormatError(err))
	}

	return decoded, format, nil
}

func wrapFormatError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	return err
}
