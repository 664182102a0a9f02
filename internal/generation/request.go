package generation

import (
	"strings"

	"bannergen/internal/domain"
	"bannergen/internal/prompt"
	"bannergen/internal/style"
)

// request is a validated and sanitised GenerationRequest.
type request struct {
	wallet         string
	tokenName      string
	ticker         string
	tagline        string
	creativePrompt string
	style          domain.Style
	chaosLevel     int
	referenceImage string
	outputType     domain.OutputType
	companion      bool
	recipeID       string
	country        string
}

// context is the text keyword mapping runs over.
func (r request) context() string {
	return strings.Join([]string{r.tokenName, r.ticker, r.tagline}, " ")
}

func normalize(in domain.GenerationRequest) (request, error) {
	r := request{
		wallet:         strings.TrimSpace(in.WalletAddress),
		tokenName:      prompt.Sanitize(in.TokenName, domain.MaxTokenNameLength),
		ticker:         prompt.SanitizeTicker(in.Ticker, domain.MaxTickerLength),
		tagline:        prompt.Sanitize(in.Tagline, domain.MaxTaglineLength),
		creativePrompt: prompt.Sanitize(in.CreativePrompt, domain.MaxCreativePromptLength),
		style:          domain.NormalizeStyle(in.Style),
		chaosLevel:     domain.ClampChaosLevel(in.ChaosLevel),
		referenceImage: strings.TrimSpace(in.ImageBase64),
		outputType:     domain.NormalizeOutputType(in.OutputType),
		companion:      in.GenerateCompanion,
		recipeID:       strings.TrimSpace(in.RecipeID),
	}

	switch {
	case r.tokenName == "":
		return request{}, &domain.ValidationError{Field: "tokenName", Message: "Token name is required"}
	case r.referenceImage == "" && r.creativePrompt == "":
		return request{}, &domain.ValidationError{Field: "imageBase64", Message: "A reference image or a creative prompt is required"}
	case r.style == "":
		return request{}, &domain.ValidationError{Field: "style", Message: "Style is required"}
	}
	// Only catalog styles reach prompts; anything else renders as the default.
	if !style.Known(r.style) {
		r.style = domain.DefaultStyle
	}
	return r, nil
}
