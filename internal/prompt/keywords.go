package prompt

import (
	"sort"
	"strings"
)

var keywordDictionary = map[string]string{
	"dog":     "loyal shiba inu mascot with expressive eyes",
	"cat":     "sly cartoon cat with a confident grin",
	"frog":    "smug green frog character, pepe-inspired",
	"pepe":    "smug green frog character, pepe-inspired",
	"moon":    "giant glowing moon, to-the-moon energy",
	"rocket":  "rocket launching with a bright exhaust trail",
	"ai":      "neural network patterns and a glowing robotic brain",
	"sol":     "solana gradient purple and teal accents",
	"fire":    "blazing flames and ember particles",
	"diamond": "faceted diamonds refracting light, diamond hands",
	"gold":    "stacks of gold coins and metallic shine",
	"dragon":  "majestic dragon coiled around the emblem",
	"space":   "deep space starfield and orbiting planets",
	"pixel":   "retro pixel art sprites",
	"ape":     "cool ape character wearing sunglasses",
	"whale":   "enormous whale breaching through waves of coins",
	"bull":    "charging bull with green candles behind it",
	"bear":    "defeated bear running away from green candles",
}

var dictionaryKeys = func() []string {
	keys := make([]string, 0, len(keywordDictionary))
	for k := range keywordDictionary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

// MapKeywords returns the visual phrases whose dictionary key appears as a
// case-insensitive substring of text. Phrases are deduplicated and ordered by key.
func MapKeywords(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, k := range dictionaryKeys {
		if !strings.Contains(lower, k) {
			continue
		}
		phrase := keywordDictionary[k]
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		out = append(out, phrase)
	}
	return out
}
