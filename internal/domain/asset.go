package domain

import "time"

// MaxSeed bounds the random seed drawn per variant (inclusive).
const MaxSeed = 999999

// GeneratedAsset is created once per produced image and never mutated.
type GeneratedAsset struct {
	ID         string     `json:"id"`
	ImageURL   string     `json:"imageUrl"`
	Seed       int        `json:"seed"`
	Prompt     string     `json:"prompt"`
	Style      Style      `json:"style"`
	OutputType OutputType `json:"outputType"`
	RecipeID   string     `json:"recipeId"`
	Provider   string     `json:"provider"`
}

// BannerRecord is the durable row written by the archive step.
type BannerRecord struct {
	ID            string     `json:"id"`
	WalletAddress string     `json:"wallet_address"`
	TokenName     string     `json:"token_name"`
	Ticker        string     `json:"ticker"`
	Style         Style      `json:"style"`
	OutputType    OutputType `json:"output_type"`
	RecipeID      string     `json:"recipe_id"`
	Seed          int        `json:"seed"`
	Prompt        string     `json:"prompt"`
	ImageURL      string     `json:"image_url"`
	StorageKey    string     `json:"storage_key"`
	Provider      string     `json:"provider"`
	Country       string     `json:"country,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
