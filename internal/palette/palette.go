package palette

import (
	"github.com/samber/lo"

	"vibrance/internal/argb"
	"vibrance/internal/swatch"
	"vibrance/internal/target"
)

// Palette holds the swatches found in an image and the swatch selected for
// each target. A Palette is immutable once built and safe for concurrent
// reads.
type Palette struct {
	swatches []*swatch.Swatch
	targets  []*target.Target
	selected map[*target.Target]*swatch.Swatch
	dominant *swatch.Swatch
}

// Selection pairs a target with the swatch chosen for it.
type Selection struct {
	Target *target.Target
	Swatch *swatch.Swatch
}

// FromSwatches builds a palette from an existing swatch list, for example
// one restored from a cache. With no targets the six defaults are used.
func FromSwatches(swatches []*swatch.Swatch, targets ...*target.Target) *Palette {
	if len(targets) == 0 {
		targets = target.Defaults()
	}
	return newPalette(swatches, targets)
}

func newPalette(swatches []*swatch.Swatch, targets []*target.Target) *Palette {
	p := &Palette{
		swatches: append([]*swatch.Swatch(nil), swatches...),
		targets:  append([]*target.Target(nil), targets...),
		selected: make(map[*target.Target]*swatch.Swatch, len(targets)),
	}
	p.dominant = findDominantSwatch(p.swatches)
	p.selectTargets()
	return p
}

// findDominantSwatch returns the most populous swatch. Ties keep the
// earliest swatch.
func findDominantSwatch(swatches []*swatch.Swatch) *swatch.Swatch {
	return lo.MaxBy(swatches, func(a, b *swatch.Swatch) bool {
		return a.Population() > b.Population()
	})
}

func (p *Palette) selectTargets() {
	usedColors := make(map[argb.Color]bool, len(p.targets))
	for _, t := range p.targets {
		best := p.maxScoredSwatch(t, usedColors)
		if best == nil {
			continue
		}
		p.selected[t] = best
		if t.IsExclusive() {
			usedColors[best.RGB()] = true
		}
	}
}

func (p *Palette) maxScoredSwatch(t *target.Target, usedColors map[argb.Color]bool) *swatch.Swatch {
	maxPopulation := 0
	if p.dominant != nil {
		maxPopulation = p.dominant.Population()
	}

	var best *swatch.Swatch
	bestScore := 0.0
	for _, candidate := range p.swatches {
		if t.IsExclusive() && usedColors[candidate.RGB()] {
			continue
		}
		score := scoreSwatch(candidate, t, maxPopulation)
		if best == nil || score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// scoreSwatch rates how closely s matches t. Each term is a closeness in
// [0,1] scaled by the target's weight; terms with non-positive weight are
// skipped.
func scoreSwatch(s *swatch.Swatch, t *target.Target, maxPopulation int) float64 {
	hsl := s.HSL()

	score := 0.0
	if weight := t.SaturationWeight(); weight > 0 {
		score += float64(weight) * closeness(hsl[1], t.TargetSaturation(), t.MaximumSaturation())
	}
	if weight := t.LightnessWeight(); weight > 0 {
		score += float64(weight) * closeness(hsl[2], t.TargetLightness(), t.MaximumLightness())
	}
	if weight := t.PopulationWeight(); weight > 0 && maxPopulation > 0 {
		score += float64(weight) * clampFloat(float64(s.Population())/float64(maxPopulation), 0, 1)
	}
	return score
}

// closeness is 1 when value equals want and falls off linearly with the
// deviation measured in units of bound. A zero bound measures the raw
// deviation.
func closeness(value float32, want float32, bound float32) float64 {
	deviation := float64(value - want)
	if deviation < 0 {
		deviation = -deviation
	}
	if bound > 0 {
		deviation /= float64(bound)
	}
	return clampFloat(1-deviation, 0, 1)
}

// Swatches returns the quantized swatches in quantizer order.
func (p *Palette) Swatches() []*swatch.Swatch {
	return append([]*swatch.Swatch(nil), p.swatches...)
}

// Targets returns the targets the palette was built against.
func (p *Palette) Targets() []*target.Target {
	return append([]*target.Target(nil), p.targets...)
}

// SwatchForTarget returns the swatch selected for t, or nil.
func (p *Palette) SwatchForTarget(t *target.Target) *swatch.Swatch {
	return p.selected[t]
}

// ColorForTarget returns the color selected for t, or defaultColor.
func (p *Palette) ColorForTarget(t *target.Target, defaultColor argb.Color) argb.Color {
	return colorOr(p.SwatchForTarget(t), defaultColor)
}

// Selections lists the chosen swatch of every target that found one, in
// target order.
func (p *Palette) Selections() []Selection {
	selections := make([]Selection, 0, len(p.selected))
	for _, t := range p.targets {
		if s, ok := p.selected[t]; ok {
			selections = append(selections, Selection{Target: t, Swatch: s})
		}
	}
	return selections
}

func (p *Palette) LightVibrantSwatch() *swatch.Swatch { return p.SwatchForTarget(target.LightVibrant) }
func (p *Palette) VibrantSwatch() *swatch.Swatch      { return p.SwatchForTarget(target.Vibrant) }
func (p *Palette) DarkVibrantSwatch() *swatch.Swatch  { return p.SwatchForTarget(target.DarkVibrant) }
func (p *Palette) LightMutedSwatch() *swatch.Swatch   { return p.SwatchForTarget(target.LightMuted) }
func (p *Palette) MutedSwatch() *swatch.Swatch        { return p.SwatchForTarget(target.Muted) }
func (p *Palette) DarkMutedSwatch() *swatch.Swatch    { return p.SwatchForTarget(target.DarkMuted) }

func (p *Palette) LightVibrantColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.LightVibrant, defaultColor)
}

func (p *Palette) VibrantColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.Vibrant, defaultColor)
}

func (p *Palette) DarkVibrantColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.DarkVibrant, defaultColor)
}

func (p *Palette) LightMutedColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.LightMuted, defaultColor)
}

func (p *Palette) MutedColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.Muted, defaultColor)
}

func (p *Palette) DarkMutedColor(defaultColor argb.Color) argb.Color {
	return p.ColorForTarget(target.DarkMuted, defaultColor)
}

// DominantSwatch returns the swatch with the largest population, or nil
// for an empty palette.
func (p *Palette) DominantSwatch() *swatch.Swatch {
	return p.dominant
}

func (p *Palette) DominantColor(defaultColor argb.Color) argb.Color {
	return colorOr(p.dominant, defaultColor)
}

func colorOr(s *swatch.Swatch, defaultColor argb.Color) argb.Color {
	if s == nil {
		return defaultColor
	}
	return s.RGB()
}
