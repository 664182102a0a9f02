package domain

import "strings"

// OutputType selects between the wide banner and the square profile picture.
type OutputType string

const (
	OutputBanner OutputType = "banner"
	OutputPFP    OutputType = "pfp"
)

const (
	MinVariants = 1
	MaxVariants = 5

	MaxTokenNameLength      = 100
	MaxTickerLength         = 20
	MaxTaglineLength        = 200
	MaxCreativePromptLength = 500
)

// NormalizeOutputType maps anything that is not "pfp" to a banner.
func NormalizeOutputType(v string) OutputType {
	if strings.EqualFold(strings.TrimSpace(v), string(OutputPFP)) {
		return OutputPFP
	}
	return OutputBanner
}

// Companion returns the opposite output type.
func (o OutputType) Companion() OutputType {
	if o == OutputPFP {
		return OutputBanner
	}
	return OutputPFP
}

// Dimensions returns the pixel size requested from providers.
func (o OutputType) Dimensions() (width, height int) {
	if o == OutputPFP {
		return 1024, 1024
	}
	return 1500, 500
}

// GenerationRequest is the decoded body of POST /generate.
type GenerationRequest struct {
	TokenName         string `json:"tokenName"`
	Ticker            string `json:"ticker,omitempty"`
	Tagline           string `json:"tagline,omitempty"`
	CreativePrompt    string `json:"creativePrompt,omitempty"`
	Style             string `json:"style"`
	ChaosLevel        int    `json:"chaosLevel"`
	ImageBase64       string `json:"imageBase64,omitempty"`
	OutputType        string `json:"outputType,omitempty"`
	VariantCount      int    `json:"variantCount,omitempty"`
	GenerateCompanion bool   `json:"generateCompanion,omitempty"`
	RecipeID          string `json:"recipeId,omitempty"`
	WalletAddress     string `json:"walletAddress,omitempty"`
}

// ClampVariantCount keeps the number of generation tasks within bounds.
func ClampVariantCount(n int) int {
	if n < MinVariants {
		return MinVariants
	}
	if n > MaxVariants {
		return MaxVariants
	}
	return n
}

// ClampChaosLevel keeps chaos within 0..100.
func ClampChaosLevel(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
