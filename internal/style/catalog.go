package style

import "bannergen/internal/domain"

var commonQuality = []string{"masterpiece", "best quality", "highly detailed", "sharp focus"}

var commonNegative = []string{"blurry", "low resolution", "jpeg artifacts", "watermark", "misspelled text"}

func with(extra ...string) []string {
	out := make([]string, 0, len(commonQuality)+len(extra))
	out = append(out, commonQuality...)
	return append(out, extra...)
}

func without(extra ...string) []string {
	out := make([]string, 0, len(commonNegative)+len(extra))
	out = append(out, commonNegative...)
	return append(out, extra...)
}

// catalog is built once at process start and never mutated.
var catalog = map[domain.Style][]domain.StyleRecipe{
	domain.StyleMeme: {
		{
			ID:          "meme-sticker-chaos",
			Name:        "Sticker Chaos",
			Description: "Loud sticker-bomb collage with internet meme energy",
			Visual: domain.VisualAttributes{
				Background:  "sticker-bombed wall of laughing emojis, rockets and candle charts",
				Lighting:    "flat bright daylight with hard drop shadows",
				Palette:     "acid green, hot pink and banana yellow",
				Texture:     "glossy vinyl stickers with white die-cut borders",
				Composition: "mascot bursting out of the center with speech-bubble energy",
			},
			Quality:  with("bold outlines", "vibrant saturated colors"),
			Negative: without("muted colors", "photorealistic skin"),
		},
		{
			ID:          "meme-comic-panel",
			Name:        "Comic Panel",
			Description: "Hand-inked comic book splash page",
			Visual: domain.VisualAttributes{
				Background:  "halftone comic panel with action lines",
				Lighting:    "dramatic rim light like a superhero splash page",
				Palette:     "primary red, cyan and yellow on off-white paper",
				Texture:     "ben-day dots and thick ink strokes",
				Composition: "dynamic low-angle hero pose with the ticker in a burst balloon",
			},
			Quality:  with("clean line art", "cel shading"),
			Negative: without("3d render", "soft gradients"),
		},
		{
			ID:          "meme-deepfried",
			Name:        "Deep Fried",
			Description: "Over-saturated, lens-flared, deliberately absurd",
			Visual: domain.VisualAttributes{
				Background:  "exploding lens flares over a cartoon moon",
				Lighting:    "blown-out glow with laser eyes",
				Palette:     "radioactive orange and electric blue",
				Texture:     "crunchy over-sharpened grain",
				Composition: "off-balance zoom with the mascot staring straight at the viewer",
			},
			Quality:  with("high contrast", "punchy colors"),
			Negative: without("subtle", "pastel"),
		},
	},
	domain.StyleProfessional: {
		{
			ID:          "pro-corporate-gradient",
			Name:        "Corporate Gradient",
			Description: "Clean fintech brand gradient",
			Visual: domain.VisualAttributes{
				Background:  "smooth diagonal gradient with faint grid lines",
				Lighting:    "soft even key light with gentle bloom",
				Palette:     "deep navy, indigo and teal with white accents",
				Texture:     "matte glass panels with subtle noise",
				Composition: "logo mark left third, generous negative space on the right",
			},
			Quality:  with("premium brand design", "crisp vector edges"),
			Negative: without("clutter", "cartoonish"),
		},
		{
			ID:          "pro-glass-3d",
			Name:        "Glass 3D",
			Description: "Frosted glass 3D shapes, product-launch look",
			Visual: domain.VisualAttributes{
				Background:  "floating frosted glass coins and abstract shapes",
				Lighting:    "studio softbox lighting with caustic highlights",
				Palette:     "silver, ice blue and soft violet",
				Texture:     "frosted glass and brushed aluminium",
				Composition: "balanced symmetric arrangement around a central emblem",
			},
			Quality:  with("octane render", "physically based materials"),
			Negative: without("grainy", "messy"),
		},
		{
			ID:          "pro-data-skyline",
			Name:        "Data Skyline",
			Description: "Abstract city skyline built from charts",
			Visual: domain.VisualAttributes{
				Background:  "night skyline formed by glowing bar charts",
				Lighting:    "cool blue hour ambience with warm window lights",
				Palette:     "midnight blue, gold and white",
				Texture:     "fine particle data streams",
				Composition: "wide horizon line with the token emblem rising above",
			},
			Quality:  with("architectural precision", "clean depth of field"),
			Negative: without("chaotic", "cartoon"),
		},
	},
	domain.StyleCyberpunk: {
		{
			ID:          "cyber-neon-alley",
			Name:        "Neon Alley",
			Description: "Rain-soaked neon street",
			Visual: domain.VisualAttributes{
				Background:  "rainy megacity alley packed with holographic signs",
				Lighting:    "magenta and cyan neon with wet reflections",
				Palette:     "magenta, cyan and deep black",
				Texture:     "wet asphalt and chrome",
				Composition: "one-point perspective leading to the glowing token sign",
			},
			Quality:  with("cinematic", "volumetric fog"),
			Negative: without("daylight", "pastoral"),
		},
		{
			ID:          "cyber-circuit",
			Name:        "Circuit Core",
			Description: "Macro view of a glowing circuit board",
			Visual: domain.VisualAttributes{
				Background:  "infinite circuit board with pulsing data traces",
				Lighting:    "emissive green and violet trace glow",
				Palette:     "toxic green, violet and gunmetal",
				Texture:     "etched copper and carbon fiber",
				Composition: "central chip stamped with the token symbol",
			},
			Quality:  with("macro photography", "ray traced reflections"),
			Negative: without("organic", "soft focus"),
		},
		{
			ID:          "cyber-glitch",
			Name:        "Glitch Terminal",
			Description: "Corrupted terminal aesthetic",
			Visual: domain.VisualAttributes{
				Background:  "scrolling green terminal code with RGB split glitches",
				Lighting:    "CRT phosphor glow",
				Palette:     "phosphor green, red and blue channel shifts",
				Texture:     "scanlines and datamosh blocks",
				Composition: "token name rendered as a glitching hologram",
			},
			Quality:  with("high detail glitch art", "sharp pixels"),
			Negative: without("clean gradient", "watercolor"),
		},
	},
	domain.StyleMinimal: {
		{
			ID:          "min-swiss",
			Name:        "Swiss Grid",
			Description: "International typographic style",
			Visual: domain.VisualAttributes{
				Background:  "plain off-white field with a strict grid",
				Lighting:    "flat shadowless light",
				Palette:     "black, white and a single signal red",
				Texture:     "smooth uncoated paper",
				Composition: "asymmetric grid with one bold geometric symbol",
			},
			Quality:  with("precise geometry", "generous whitespace"),
			Negative: without("busy", "ornate", "gradients"),
		},
		{
			ID:          "min-mono-line",
			Name:        "Mono Line",
			Description: "Single-weight line illustration",
			Visual: domain.VisualAttributes{
				Background:  "solid pastel backdrop",
				Lighting:    "no lighting effects",
				Palette:     "two-tone pastel with charcoal linework",
				Texture:     "clean vector lines",
				Composition: "single continuous line drawing of the mascot, centered",
			},
			Quality:  with("vector illustration", "consistent stroke width"),
			Negative: without("shading", "texture noise"),
		},
		{
			ID:          "min-zen-space",
			Name:        "Zen Space",
			Description: "Calm, spacious, meditative",
			Visual: domain.VisualAttributes{
				Background:  "endless calm horizon with soft fog",
				Lighting:    "diffuse morning light",
				Palette:     "sand, stone grey and sage",
				Texture:     "soft matte surfaces",
				Composition: "small emblem placed on the lower third with vast negative space",
			},
			Quality:  with("serene", "refined"),
			Negative: without("clutter", "neon"),
		},
	},
	domain.StyleRetro: {
		{
			ID:          "retro-synthwave",
			Name:        "Synthwave Sunset",
			Description: "80s outrun sunset",
			Visual: domain.VisualAttributes{
				Background:  "striped sun setting over a neon wireframe grid",
				Lighting:    "warm sunset glow with purple haze",
				Palette:     "sunset orange, hot pink and deep purple",
				Texture:     "VHS grain and chrome lettering",
				Composition: "horizon centered with chrome token logo in the sky",
			},
			Quality:  with("retro poster art", "smooth gradients"),
			Negative: without("modern flat design", "desaturated"),
		},
		{
			ID:          "retro-pixel",
			Name:        "Pixel Arcade",
			Description: "16-bit arcade cabinet art",
			Visual: domain.VisualAttributes{
				Background:  "side-scrolling pixel landscape with coins and platforms",
				Lighting:    "flat palette lighting",
				Palette:     "limited 16-color arcade palette",
				Texture:     "crisp square pixels",
				Composition: "mascot sprite mid-jump collecting a giant coin",
			},
			Quality:  with("pixel perfect", "clean sprite work"),
			Negative: without("anti-aliasing blur", "photorealism"),
		},
		{
			ID:          "retro-70s-print",
			Name:        "70s Print",
			Description: "Faded seventies screen print",
			Visual: domain.VisualAttributes{
				Background:  "concentric rainbow stripes",
				Lighting:    "warm nostalgic light",
				Palette:     "mustard, burnt orange and avocado green",
				Texture:     "misregistered screen print and paper grain",
				Composition: "groovy typography wrapped around the emblem",
			},
			Quality:  with("vintage poster", "rich print texture"),
			Negative: without("neon", "glossy 3d"),
		},
	},
	domain.StyleCosmic: {
		{
			ID:          "cosmic-nebula",
			Name:        "Nebula Drift",
			Description: "Vast coloured nebula",
			Visual: domain.VisualAttributes{
				Background:  "swirling nebula clouds and distant galaxies",
				Lighting:    "starlight with glowing gas emission",
				Palette:     "violet, teal and rose gold",
				Texture:     "fine stardust particles",
				Composition: "token emblem as a planet orbiting through the nebula",
			},
			Quality:  with("astrophotography detail", "deep space clarity"),
			Negative: without("flat background", "cartoon stars"),
		},
		{
			ID:          "cosmic-moon-landing",
			Name:        "Moon Landing",
			Description: "Heroic lunar mission",
			Visual: domain.VisualAttributes{
				Background:  "lunar surface with Earth rising on the horizon",
				Lighting:    "harsh sunlight with deep shadows",
				Palette:     "lunar grey, black and earth blue",
				Texture:     "fine regolith dust",
				Composition: "astronaut mascot planting a flag bearing the ticker",
			},
			Quality:  with("cinematic space photography", "ultra sharp"),
			Negative: without("atmosphere haze", "cartoon"),
		},
		{
			ID:          "cosmic-portal",
			Name:        "Star Portal",
			Description: "Glowing interdimensional portal",
			Visual: domain.VisualAttributes{
				Background:  "ring-shaped portal tearing open the starfield",
				Lighting:    "intense white-gold core glow",
				Palette:     "gold, electric blue and void black",
				Texture:     "energy ripples and light trails",
				Composition: "portal centered, token symbol emerging from the core",
			},
			Quality:  with("epic scale", "luminous detail"),
			Negative: without("dull", "muddy colors"),
		},
	},
}

// Recipes returns the recipe list for a style, falling back to the default
// style's list for unknown values. The returned slice must not be modified.
func Recipes(s domain.Style) []domain.StyleRecipe {
	if list, ok := catalog[s]; ok && len(list) > 0 {
		return list
	}
	return catalog[domain.DefaultStyle]
}

// Known reports whether a style has its own recipe list.
func Known(s domain.Style) bool {
	_, ok := catalog[s]
	return ok
}
