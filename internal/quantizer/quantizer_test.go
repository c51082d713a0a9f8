package quantizer

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"vibrance/internal/argb"
	"vibrance/internal/swatch"
)

type swatchSummary struct {
	Color      string
	Population int
}

func summarize(swatches []*swatch.Swatch) []swatchSummary {
	return lo.Map(swatches, func(s *swatch.Swatch, _ int) swatchSummary {
		return swatchSummary{Color: s.RGB().String(), Population: s.Population()}
	})
}

func TestQuantizeFewColorsReturnsEachColor(t *testing.T) {
	t.Parallel()

	pixels := []argb.Color{
		argb.FromUint32(0xFFFF0000),
		argb.FromUint32(0xFFFF0000),
		argb.FromUint32(0xFF00FF00),
		argb.FromUint32(0xFF0000FF),
	}

	got := summarize(New(pixels, 4, nil).Swatches())
	want := []swatchSummary{
		{Color: "#FF0000FF", Population: 1},
		{Color: "#FF00FF00", Population: 1},
		{Color: "#FFFF0000", Population: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected swatches (-want +got):\n%s", diff)
	}
}

func TestQuantizeSplitsAlongLongestChannel(t *testing.T) {
	t.Parallel()

	pixels := []argb.Color{
		argb.RGB(0, 0, 0),
		argb.RGB(80, 0, 0),
		argb.RGB(160, 0, 0),
		argb.RGB(248, 0, 0),
		argb.RGB(248, 0, 0),
		argb.RGB(248, 0, 0),
		argb.RGB(248, 0, 0),
		argb.RGB(248, 0, 0),
	}

	got := summarize(New(pixels, 2, nil).Swatches())
	want := []swatchSummary{
		{Color: argb.RGB(82, 0, 0).String(), Population: 3},
		{Color: argb.RGB(255, 0, 0).String(), Population: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected swatches (-want +got):\n%s", diff)
	}
}

func TestQuantizeIsBounded(t *testing.T) {
	t.Parallel()

	pixels := randomPixels(4096, 7)
	for maxColors := 1; maxColors <= 32; maxColors++ {
		swatches := New(pixels, maxColors, nil).Swatches()
		if len(swatches) > maxColors {
			t.Fatalf("max %d: got %d swatches", maxColors, len(swatches))
		}
		if len(swatches) == 0 {
			t.Fatalf("max %d: expected swatches", maxColors)
		}
	}

	if got := len(New(pixels, 0, nil).Swatches()); got != 1 {
		t.Fatalf("expected a non-positive max to behave like one, got %d", got)
	}
}

func TestQuantizeConservesPopulation(t *testing.T) {
	t.Parallel()

	pixels := randomPixels(2500, 11)
	for _, maxColors := range []int{1, 3, 16, 64, 512} {
		swatches := New(pixels, maxColors, nil).Swatches()
		total := lo.SumBy(swatches, func(s *swatch.Swatch) int { return s.Population() })
		if total != len(pixels) {
			t.Fatalf("max %d: population %d, want %d", maxColors, total, len(pixels))
		}
	}
}

func TestQuantizeAppliesFiltersToHistogram(t *testing.T) {
	t.Parallel()

	noRed := FilterFunc(func(rgb argb.Color, hsl [3]float32) bool {
		return !(rgb.Red() > 200 && rgb.Green() < 50 && rgb.Blue() < 50)
	})

	pixels := []argb.Color{
		argb.RGB(255, 0, 0),
		argb.RGB(255, 0, 0),
		argb.RGB(0, 255, 0),
		argb.RGB(0, 0, 255),
	}

	swatches := New(pixels, 16, []Filter{noRed}).Swatches()
	if len(swatches) != 2 {
		t.Fatalf("expected red to be filtered out, got %v", summarize(swatches))
	}
	for _, s := range swatches {
		if s.RGB() == argb.RGB(255, 0, 0) {
			t.Fatal("red swatch survived filtering")
		}
	}
}

func TestQuantizeRejectsFilteredAverage(t *testing.T) {
	t.Parallel()

	noMidGray := FilterFunc(func(_ argb.Color, hsl [3]float32) bool {
		return hsl[2] <= 0.3 || hsl[2] >= 0.7
	})

	pixels := []argb.Color{argb.Black, argb.White}
	if got := New(pixels, 2, []Filter{noMidGray}).Swatches(); len(got) != 2 {
		t.Fatalf("expected black and white to survive, got %v", summarize(got))
	}
	if got := New(pixels, 1, []Filter{noMidGray}).Swatches(); len(got) != 0 {
		t.Fatalf("expected averaged gray to be rejected, got %v", summarize(got))
	}
}

func TestQuantizeEmptyInput(t *testing.T) {
	t.Parallel()

	if got := New(nil, 16, nil).Swatches(); len(got) != 0 {
		t.Fatalf("expected no swatches, got %d", len(got))
	}

	rejectAll := FilterFunc(func(argb.Color, [3]float32) bool { return false })
	if got := New(randomPixels(100, 3), 16, []Filter{rejectAll}).Swatches(); len(got) != 0 {
		t.Fatalf("expected everything to be filtered, got %d", len(got))
	}
}

func TestQuantizeIsDeterministic(t *testing.T) {
	t.Parallel()

	pixels := randomPixels(3000, 42)
	first := summarize(New(pixels, 12, nil).Swatches())
	second := summarize(New(pixels, 12, nil).Swatches())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("quantization differs between runs:\n%s", diff)
	}
}

func TestSplitBoxPanicsOnSingleColor(t *testing.T) {
	t.Parallel()

	q := New([]argb.Color{argb.RGB(10, 20, 30)}, 1, nil)
	box := q.newVbox(0, 0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected splitting a single-color box to panic")
		}
	}()
	q.splitBox(box)
}

func TestLongestColorDimensionTieBreak(t *testing.T) {
	t.Parallel()

	cases := []struct {
		box  vbox
		want component
	}{
		{box: vbox{maxRed: 4, maxGreen: 4, maxBlue: 4}, want: componentRed},
		{box: vbox{maxRed: 3, maxGreen: 4, maxBlue: 4}, want: componentGreen},
		{box: vbox{maxRed: 3, maxGreen: 2, maxBlue: 4}, want: componentBlue},
		{box: vbox{maxRed: 9, maxGreen: 2, maxBlue: 4}, want: componentRed},
	}
	for _, tc := range cases {
		if got := tc.box.longestColorDimension(); got != tc.want {
			t.Fatalf("%+v: got %d want %d", tc.box, got, tc.want)
		}
	}
}

func TestModifyWordWidth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, from, to, want int
	}{
		{value: 31, from: 5, to: 8, want: 255},
		{value: 0, from: 5, to: 8, want: 0},
		{value: 16, from: 5, to: 8, want: 132},
		{value: 255, from: 8, to: 5, want: 31},
		{value: 7, from: 8, to: 5, want: 0},
	}
	for _, tc := range cases {
		if got := modifyWordWidth(tc.value, tc.from, tc.to); got != tc.want {
			t.Fatalf("modifyWordWidth(%d, %d, %d) = %d, want %d", tc.value, tc.from, tc.to, got, tc.want)
		}
	}
}

func TestModifySignificantOctetIsAnInvolution(t *testing.T) {
	t.Parallel()

	original := []int{0, 1, 33, 1024, 32767, 12345}
	for _, dimension := range []component{componentRed, componentGreen, componentBlue} {
		colors := append([]int(nil), original...)
		modifySignificantOctet(colors, dimension)
		modifySignificantOctet(colors, dimension)
		if diff := cmp.Diff(original, colors); diff != "" {
			t.Fatalf("dimension %d did not restore colors:\n%s", dimension, diff)
		}
	}
}

func randomPixels(count int, seed uint64) []argb.Color {
	random := rand.New(rand.NewPCG(seed, seed*31+1))
	pixels := make([]argb.Color, count)
	for index := range pixels {
		pixels[index] = argb.RGB(uint8(random.IntN(256)), uint8(random.IntN(256)), uint8(random.IntN(256)))
	}
	return pixels
}
