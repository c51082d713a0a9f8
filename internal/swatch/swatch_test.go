package swatch

import (
	"sync"
	"testing"

	"vibrance/internal/argb"
	"vibrance/internal/colorutil"
)

func TestNewForcesOpaque(t *testing.T) {
	t.Parallel()

	s := New(argb.New(0x10, 1, 2, 3), 7)
	if s.RGB() != argb.RGB(1, 2, 3) {
		t.Fatalf("expected opaque rgb, got %s", s.RGB())
	}
	if s.Red() != 1 || s.Green() != 2 || s.Blue() != 3 || s.Population() != 7 {
		t.Fatalf("unexpected swatch %v", s)
	}
	if New(argb.Black, -4).Population() != 0 {
		t.Fatal("expected negative population to clamp to zero")
	}
}

func TestTextColorsMeetContrast(t *testing.T) {
	t.Parallel()

	colors := []argb.Color{
		argb.RGB(255, 0, 0),
		argb.RGB(128, 128, 128),
		argb.RGB(10, 20, 70),
		argb.RGB(250, 230, 40),
		argb.RGB(118, 118, 118),
		argb.White,
		argb.Black,
	}

	for _, c := range colors {
		s := New(c, 1)
		assertTextContrast(t, s, s.BodyTextColor(), 4.5)
		assertTextContrast(t, s, s.TitleTextColor(), 3.0)
	}
}

func TestTextColorsPreferWhiteOnDark(t *testing.T) {
	t.Parallel()

	dark := New(argb.RGB(10, 20, 70), 1)
	if dark.BodyTextColor().WithAlpha(0xFF) != argb.White || dark.TitleTextColor().WithAlpha(0xFF) != argb.White {
		t.Fatalf("expected white text on dark navy, got %s / %s", dark.BodyTextColor(), dark.TitleTextColor())
	}
	if dark.TitleTextColor().Alpha() > dark.BodyTextColor().Alpha() {
		t.Fatal("title text needs less contrast than body text")
	}

	light := New(argb.RGB(250, 230, 40), 1)
	if light.BodyTextColor().WithAlpha(0xFF) != argb.Black || light.TitleTextColor().WithAlpha(0xFF) != argb.Black {
		t.Fatalf("expected black text on yellow, got %s / %s", light.BodyTextColor(), light.TitleTextColor())
	}
}

func TestHSLAndTextColorsAreStableAcrossGoroutines(t *testing.T) {
	t.Parallel()

	s := New(argb.RGB(40, 120, 200), 12)
	wantHSL := colorutil.RGBToHSL(40, 120, 200)

	var wg sync.WaitGroup
	results := make([]argb.Color, 16)
	for index := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			if s.HSL() != wantHSL {
				t.Errorf("unexpected hsl %v", s.HSL())
			}
			results[slot] = s.BodyTextColor()
		}(index)
	}
	wg.Wait()

	for _, result := range results {
		if result != results[0] {
			t.Fatalf("body text color changed between reads: %s vs %s", result, results[0])
		}
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	left := New(argb.RGB(1, 2, 3), 4)
	if !left.Equal(New(argb.RGB(1, 2, 3), 4)) {
		t.Fatal("expected equal swatches")
	}
	if left.Equal(New(argb.RGB(1, 2, 3), 5)) {
		t.Fatal("expected population to matter")
	}
	if left.Equal(nil) {
		t.Fatal("expected nil to differ")
	}
}

func assertTextContrast(t *testing.T, s *Swatch, text argb.Color, minimum float64) {
	t.Helper()

	base := text.WithAlpha(0xFF)
	if base != argb.White && base != argb.Black {
		t.Fatalf("%s: text color %s is neither white nor black", s.Hex(), text)
	}

	ratio, err := colorutil.ContrastRatio(text, s.RGB())
	if err != nil {
		t.Fatalf("contrast ratio: %v", err)
	}
	if ratio < minimum {
		t.Fatalf("%s: text %s has contrast %.2f, want >= %.1f", s.Hex(), text, ratio, minimum)
	}
}
