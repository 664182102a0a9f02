// Package prompt turns a recipe and the caller's token details into the
// text prompt sent to image providers.
package prompt

import (
	"fmt"
	"strings"
	"unicode"

	"bannergen/internal/domain"
)

// ChaosThreshold is the chaos level above which prompts ask for maximal energy.
const ChaosThreshold = 70

const creativeMinChars = 10

var pfpNegative = []string{"distorted face", "extra limbs", "cluttered background", "text overlay", "watermark", "cropped subject", "blurry"}

// Input is everything Build needs for one prompt.
type Input struct {
	TokenName      string
	Ticker         string
	Tagline        string
	CreativePrompt string
	Style          domain.Style
	Config         domain.StyleMatrixConfig
	Seed           int
	OutputType     domain.OutputType
}

// NewMatrixConfig derives the per-request style configuration.
func NewMatrixConfig(recipe domain.StyleRecipe, chaosLevel int, contextText string) domain.StyleMatrixConfig {
	return domain.StyleMatrixConfig{
		Recipe:         recipe,
		ChaosMode:      domain.ClampChaosLevel(chaosLevel) > ChaosThreshold,
		MappedKeywords: MapKeywords(contextText),
	}
}

// Build returns the provider prompt. It is deterministic for a given input.
func Build(in Input) string {
	var out string
	switch {
	case isCreative(in.CreativePrompt):
		out = buildCreative(in)
	case in.OutputType == domain.OutputPFP:
		out = buildPFP(in)
	default:
		out = buildBanner(in)
	}
	return fmt.Sprintf("%s Variation %d.", out, in.Seed)
}

func isCreative(s string) bool {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n > creativeMinChars
}

func buildCreative(in Input) string {
	r := in.Config.Recipe
	w, h := in.OutputType.Dimensions()
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s. ", strings.TrimSpace(in.CreativePrompt))
	if name := subject(in); name != "" {
		fmt.Fprintf(sb, "Subject: %s. ", name)
	}
	fmt.Fprintf(sb, "Lighting: %s. Texture: %s. ", r.Visual.Lighting, r.Visual.Texture)
	if len(r.Quality) > 0 {
		fmt.Fprintf(sb, "%s. ", strings.Join(r.Quality, ", "))
	}
	fmt.Fprintf(sb, "Rendered at %dx%d, ultra detailed, coherent composition.", w, h)
	return sb.String()
}

func buildBanner(in Input) string {
	r := in.Config.Recipe
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Wide 3:1 crypto token banner for %s in a %s %s style (%s).", subject(in), in.Style, r.Name, r.Description)
	if in.Tagline != "" {
		fmt.Fprintf(sb, " Theme: %q.", in.Tagline)
	}
	if len(in.Config.MappedKeywords) > 0 {
		fmt.Fprintf(sb, " Visual motifs: %s.", strings.Join(in.Config.MappedKeywords, "; "))
	}
	writeVisual(sb, r.Visual)
	if in.Config.ChaosMode {
		sb.WriteString(" CHAOS MODE: maximal energy, overlapping elements, explosive colors, unexpected details everywhere.")
	} else {
		sb.WriteString(" Keep the composition balanced and readable with a clear focal point.")
	}
	writeQuality(sb, r.Quality)
	if len(r.Negative) > 0 {
		fmt.Fprintf(sb, " Avoid: %s.", strings.Join(r.Negative, ", "))
	}
	return sb.String()
}

func buildPFP(in Input) string {
	r := in.Config.Recipe
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Square profile picture avatar for %s in a %s %s style.", subject(in), in.Style, r.Name)
	if len(in.Config.MappedKeywords) > 0 {
		fmt.Fprintf(sb, " Character inspired by: %s.", strings.Join(in.Config.MappedKeywords, "; "))
	}
	fmt.Fprintf(sb, " Single subject centered and front-facing, filling most of the frame, on a simple %s background.", r.Visual.Palette)
	sb.WriteString(" Lighting: soft studio lighting.")
	fmt.Fprintf(sb, " Texture: %s.", r.Visual.Texture)
	if in.Config.ChaosMode {
		sb.WriteString(" Bold, wild expression with vivid accents.")
	}
	writeQuality(sb, r.Quality)
	fmt.Fprintf(sb, " Negative: %s.", strings.Join(pfpNegative, ", "))
	return sb.String()
}

func subject(in Input) string {
	switch {
	case in.TokenName != "" && in.Ticker != "":
		return fmt.Sprintf("%s ($%s)", in.TokenName, in.Ticker)
	case in.TokenName != "":
		return in.TokenName
	default:
		return in.Ticker
	}
}

func writeVisual(sb *strings.Builder, v domain.VisualAttributes) {
	fmt.Fprintf(sb, " Background: %s.", v.Background)
	fmt.Fprintf(sb, " Lighting: %s.", v.Lighting)
	fmt.Fprintf(sb, " Color palette: %s.", v.Palette)
	fmt.Fprintf(sb, " Texture: %s.", v.Texture)
	fmt.Fprintf(sb, " Composition: %s.", v.Composition)
}

func writeQuality(sb *strings.Builder, q []string) {
	if len(q) == 0 {
		return
	}
	fmt.Fprintf(sb, " Quality: %s.", strings.Join(q, ", "))
}
