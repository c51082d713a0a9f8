// Package target describes the color profiles a palette is scored against.
package target

const (
	targetDarkLuma = 0.26
	maxDarkLuma    = 0.45

	minLightLuma    = 0.55
	targetLightLuma = 0.74

	minNormalLuma    = 0.3
	targetNormalLuma = 0.5
	maxNormalLuma    = 0.7

	targetMutedSaturation = 0.3
	maxMutedSaturation    = 0.4

	targetVibrantSaturation = 1.0
	minVibrantSaturation    = 0.35

	weightSaturation = 0.24
	weightLuma       = 0.52
	weightPopulation = 0.24
)

const (
	indexMin = iota
	indexTarget
	indexMax
)

const (
	indexWeightSaturation = iota
	indexWeightLuma
	indexWeightPopulation
)

// Kind names one of the six canonical targets.
type Kind int

const (
	KindLightVibrant Kind = iota
	KindVibrant
	KindDarkVibrant
	KindLightMuted
	KindMuted
	KindDarkMuted
)

var kindNames = map[Kind]string{
	KindLightVibrant: "light-vibrant",
	KindVibrant:      "vibrant",
	KindDarkVibrant:  "dark-vibrant",
	KindLightMuted:   "light-muted",
	KindMuted:        "muted",
	KindDarkMuted:    "dark-muted",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "custom"
}

// Target is an immutable scoring profile. Palettes key their selections by
// *Target, so identity matters: reuse the package-level instances rather
// than rebuilding them.
type Target struct {
	name       string
	saturation [3]float32
	lightness  [3]float32
	weights    [3]float32
	exclusive  bool
}

var (
	LightVibrant = newCanonical(KindLightVibrant)
	Vibrant      = newCanonical(KindVibrant)
	DarkVibrant  = newCanonical(KindDarkVibrant)
	LightMuted   = newCanonical(KindLightMuted)
	Muted        = newCanonical(KindMuted)
	DarkMuted    = newCanonical(KindDarkMuted)
)

// Defaults returns the six canonical targets in selection order.
func Defaults() []*Target {
	return []*Target{LightVibrant, Vibrant, DarkVibrant, LightMuted, Muted, DarkMuted}
}

func newDefault() Target {
	return Target{
		name:       "custom",
		saturation: [3]float32{0, 0.5, 1},
		lightness:  [3]float32{0, 0.5, 1},
		weights:    [3]float32{weightSaturation, weightLuma, weightPopulation},
		exclusive:  true,
	}
}

func newCanonical(kind Kind) *Target {
	t := newDefault()
	t.name = kind.String()

	switch kind {
	case KindLightVibrant:
		t.setLightLightness()
		t.setVibrantSaturation()
	case KindVibrant:
		t.setNormalLightness()
		t.setVibrantSaturation()
	case KindDarkVibrant:
		t.setDarkLightness()
		t.setVibrantSaturation()
	case KindLightMuted:
		t.setLightLightness()
		t.setMutedSaturation()
	case KindMuted:
		t.setNormalLightness()
		t.setMutedSaturation()
	case KindDarkMuted:
		t.setDarkLightness()
		t.setMutedSaturation()
	}

	t.normalizeWeights()
	return &t
}

func (t *Target) setDarkLightness() {
	t.lightness[indexTarget] = targetDarkLuma
	t.lightness[indexMax] = maxDarkLuma
}

func (t *Target) setNormalLightness() {
	t.lightness[indexMin] = minNormalLuma
	t.lightness[indexTarget] = targetNormalLuma
	t.lightness[indexMax] = maxNormalLuma
}

func (t *Target) setLightLightness() {
	t.lightness[indexMin] = minLightLuma
	t.lightness[indexTarget] = targetLightLuma
}

func (t *Target) setVibrantSaturation() {
	t.saturation[indexMin] = minVibrantSaturation
	t.saturation[indexTarget] = targetVibrantSaturation
}

func (t *Target) setMutedSaturation() {
	t.saturation[indexTarget] = targetMutedSaturation
	t.saturation[indexMax] = maxMutedSaturation
}

// normalizeWeights scales the positive weights so they sum to one.
// Non-positive weights are left alone and carry no influence.
func (t *Target) normalizeWeights() {
	var sum float32
	for _, weight := range t.weights {
		if weight > 0 {
			sum += weight
		}
	}
	if sum == 0 {
		return
	}
	for index, weight := range t.weights {
		if weight > 0 {
			t.weights[index] = weight / sum
		}
	}
}

func (t *Target) Name() string { return t.name }

func (t *Target) MinimumSaturation() float32 { return t.saturation[indexMin] }

func (t *Target) TargetSaturation() float32 { return t.saturation[indexTarget] }

func (t *Target) MaximumSaturation() float32 { return t.saturation[indexMax] }

func (t *Target) MinimumLightness() float32 { return t.lightness[indexMin] }

func (t *Target) TargetLightness() float32 { return t.lightness[indexTarget] }

func (t *Target) MaximumLightness() float32 { return t.lightness[indexMax] }

// SaturationWeight is the relative importance of a color's saturation
// being close to TargetSaturation.
func (t *Target) SaturationWeight() float32 { return t.weights[indexWeightSaturation] }

// LightnessWeight is the relative importance of a color's lightness being
// close to TargetLightness.
func (t *Target) LightnessWeight() float32 { return t.weights[indexWeightLuma] }

// PopulationWeight is the relative importance of a color's population
// being close to the most populous swatch.
func (t *Target) PopulationWeight() float32 { return t.weights[indexWeightPopulation] }

// IsExclusive reports whether a swatch chosen for this target is withheld
// from later targets.
func (t *Target) IsExclusive() bool { return t.exclusive }

func (t *Target) String() string { return t.name }
