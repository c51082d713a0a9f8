package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"

	"vibrance/internal/argb"
	"vibrance/internal/colorutil"
	"vibrance/internal/imagesource"
	"vibrance/internal/swatch"
)

const swatchBlockWidth = 22

type swatchDocument struct {
	Color      string     `json:"color"`
	Population int        `json:"population"`
	HSL        [3]float32 `json:"hsl"`
	TitleText  string     `json:"titleText"`
	BodyText   string     `json:"bodyText"`
}

type selectionDocument struct {
	Target string         `json:"target"`
	Swatch swatchDocument `json:"swatch"`
}

type paletteDocument struct {
	Source     imagesource.Source  `json:"source"`
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Dominant   *swatchDocument     `json:"dominant,omitempty"`
	Selections []selectionDocument `json:"selections"`
	Swatches   []swatchDocument    `json:"swatches"`
}

type paletteRenderer struct {
	out      io.Writer
	asJSON   bool
	renderer *lipgloss.Renderer
}

func newPaletteRenderer(out io.Writer, asJSON bool) *paletteRenderer {
	return &paletteRenderer{out: out, asJSON: asJSON, renderer: lipgloss.NewRenderer(out)}
}

func (r *paletteRenderer) Render(result *PaletteResult) error {
	if r.asJSON {
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(buildPaletteDocument(result)); err != nil {
			return fmt.Errorf("encode palette: %w", err)
		}
		return nil
	}

	_, err := io.WriteString(r.out, r.renderText(result))
	return err
}

func buildPaletteDocument(result *PaletteResult) paletteDocument {
	p := result.Palette
	document := paletteDocument{
		Source:     result.Source,
		Width:      result.Width,
		Height:     result.Height,
		Selections: make([]selectionDocument, 0, len(p.Targets())),
		Swatches:   make([]swatchDocument, 0, len(p.Swatches())),
	}

	if dominant := p.DominantSwatch(); dominant != nil {
		doc := newSwatchDocument(dominant)
		document.Dominant = &doc
	}
	for _, selection := range p.Selections() {
		document.Selections = append(document.Selections, selectionDocument{
			Target: selection.Target.Name(),
			Swatch: newSwatchDocument(selection.Swatch),
		})
	}
	for _, s := range p.Swatches() {
		document.Swatches = append(document.Swatches, newSwatchDocument(s))
	}

	return document
}

func newSwatchDocument(s *swatch.Swatch) swatchDocument {
	return swatchDocument{
		Color:      s.Hex(),
		Population: s.Population(),
		HSL:        s.HSL(),
		TitleText:  s.TitleTextColor().String(),
		BodyText:   s.BodyTextColor().String(),
	}
}

func (r *paletteRenderer) renderText(result *PaletteResult) string {
	p := result.Palette

	header := r.renderer.NewStyle().Bold(true).Render(result.Source.Path)
	details := r.renderer.NewStyle().Faint(true).Render(fmt.Sprintf(
		"%s %s, %dx%d, %d swatches, %s",
		result.Source.Kind,
		result.Source.Format,
		result.Width,
		result.Height,
		len(p.Swatches()),
		result.Elapsed.Round(100*time.Microsecond),
	))

	lines := []string{header + "  " + details}

	dominant := p.DominantSwatch()
	if dominant == nil {
		lines = append(lines, "  no colors survived filtering")
		return strings.Join(lines, "\n") + "\n\n"
	}

	lines = append(lines, r.renderRow("dominant", dominant, dominant))
	for _, selection := range p.Selections() {
		lines = append(lines, r.renderRow(selection.Target.Name(), selection.Swatch, dominant))
	}

	return strings.Join(lines, "\n") + "\n\n"
}

func (r *paletteRenderer) renderRow(label string, s *swatch.Swatch, dominant *swatch.Swatch) string {
	background := s.RGB()
	title := textHex(s.TitleTextColor(), background)
	body := textHex(s.BodyTextColor(), background)

	block := lipgloss.JoinHorizontal(
		lipgloss.Top,
		r.renderer.NewStyle().
			Background(lipgloss.Color(s.Hex())).
			Foreground(lipgloss.Color(title)).
			Bold(true).
			Padding(0, 1).
			Render("Title"),
		r.renderer.NewStyle().
			Background(lipgloss.Color(s.Hex())).
			Foreground(lipgloss.Color(body)).
			Width(swatchBlockWidth-len("Title")-2).
			Render("body text"),
	)

	name := r.renderer.NewStyle().Width(14).Render(label)
	info := fmt.Sprintf(
		"%s  population %s  ΔE %.1f",
		s.Hex(),
		humanize.Comma(int64(s.Population())),
		toColorful(s.RGB()).DistanceCIEDE2000(toColorful(dominant.RGB()))*100,
	)

	return "  " + name + block + "  " + info
}

// textHex flattens a possibly translucent text color onto its opaque
// background so terminals without alpha show the same contrast.
func textHex(text argb.Color, background argb.Color) string {
	return toColorful(colorutil.Composite(text, background)).Hex()
}

func toColorful(c argb.Color) colorful.Color {
	return colorful.Color{
		R: float64(c.Red()) / 255,
		G: float64(c.Green()) / 255,
		B: float64(c.Blue()) / 255,
	}
}
