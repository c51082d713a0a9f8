package target

// Builder assembles a custom Target. The zero value is not usable; start
// from NewBuilder or NewBuilderFrom.
type Builder struct {
	target Target
}

// NewBuilder starts from neutral ranges with the default weights.
func NewBuilder() *Builder {
	return &Builder{target: newDefault()}
}

// NewBuilderFrom copies an existing target. The source is not modified.
func NewBuilderFrom(source *Target) *Builder {
	copied := *source
	return &Builder{target: copied}
}

func (b *Builder) Name(name string) *Builder {
	b.target.name = name
	return b
}

func (b *Builder) MinimumSaturation(value float32) *Builder {
	b.target.saturation[indexMin] = value
	return b
}

func (b *Builder) TargetSaturation(value float32) *Builder {
	b.target.saturation[indexTarget] = value
	return b
}

func (b *Builder) MaximumSaturation(value float32) *Builder {
	b.target.saturation[indexMax] = value
	return b
}

func (b *Builder) MinimumLightness(value float32) *Builder {
	b.target.lightness[indexMin] = value
	return b
}

func (b *Builder) TargetLightness(value float32) *Builder {
	b.target.lightness[indexTarget] = value
	return b
}

func (b *Builder) MaximumLightness(value float32) *Builder {
	b.target.lightness[indexMax] = value
	return b
}

// SaturationWeight sets the importance of saturation. Zero or negative
// weights remove saturation from scoring.
func (b *Builder) SaturationWeight(weight float32) *Builder {
	b.target.weights[indexWeightSaturation] = weight
	return b
}

func (b *Builder) LightnessWeight(weight float32) *Builder {
	b.target.weights[indexWeightLuma] = weight
	return b
}

func (b *Builder) PopulationWeight(weight float32) *Builder {
	b.target.weights[indexWeightPopulation] = weight
	return b
}

// Exclusive controls whether the chosen swatch is withheld from later
// targets. Defaults to true.
func (b *Builder) Exclusive(exclusive bool) *Builder {
	b.target.exclusive = exclusive
	return b
}

// Build returns a new Target with normalized weights. The builder can keep
// being used afterwards without affecting the returned value.
func (b *Builder) Build() *Target {
	built := b.target
	built.normalizeWeights()
	return &built
}
