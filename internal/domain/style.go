package domain

import "strings"

// Style enumerates the art directions a caller can request.
type Style string

const (
	StyleMeme         Style = "meme"
	StyleProfessional Style = "professional"
	StyleCyberpunk    Style = "cyberpunk"
	StyleMinimal      Style = "minimal"
	StyleRetro        Style = "retro"
	StyleCosmic       Style = "cosmic"
)

// DefaultStyle is used whenever a style has no recipes of its own.
const DefaultStyle = StyleProfessional

// Styles lists every supported style in display order.
func Styles() []Style {
	return []Style{StyleMeme, StyleProfessional, StyleCyberpunk, StyleMinimal, StyleRetro, StyleCosmic}
}

// NormalizeStyle lower-cases and trims a free-form style value.
func NormalizeStyle(s string) Style {
	return Style(strings.ToLower(strings.TrimSpace(s)))
}

// VisualAttributes are the five free-text axes a recipe controls.
type VisualAttributes struct {
	Background  string `json:"background"`
	Lighting    string `json:"lighting"`
	Palette     string `json:"palette"`
	Texture     string `json:"texture"`
	Composition string `json:"composition"`
}

// StyleRecipe is an immutable art-direction preset belonging to a style.
type StyleRecipe struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Visual      VisualAttributes `json:"visual"`
	Quality     []string         `json:"quality"`
	Negative    []string         `json:"negative"`
}

// StyleMatrixConfig is derived per request and never persisted.
type StyleMatrixConfig struct {
	Recipe         StyleRecipe
	ChaosMode      bool
	MappedKeywords []string
}
