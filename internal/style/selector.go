package style

import (
	"math/rand/v2"
	"strings"

	"bannergen/internal/domain"
)

// Select picks a recipe for the style. An explicit recipeID found in the
// style's list wins; otherwise a seed picks recipes[seed mod len]; with
// neither, a recipe is chosen uniformly at random.
func Select(s domain.Style, recipeID string, seed *int) domain.StyleRecipe {
	recipes := Recipes(s)
	if id := strings.TrimSpace(recipeID); id != "" {
		for _, r := range recipes {
			if r.ID == id {
				return r
			}
		}
	}
	if seed != nil {
		return recipes[indexForSeed(*seed, len(recipes))]
	}
	return recipes[rand.IntN(len(recipes))]
}

func indexForSeed(seed, n int) int {
	idx := seed % n
	if idx < 0 {
		idx += n
	}
	return idx
}
