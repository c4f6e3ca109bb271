package thumbgen

import (
	"fmt"
	"strings"

	"clicknail/internal/domain"
)

// stylePhrases maps each wizard style to the descriptive fragment folded into
// the generation prompt. Unknown styles fall back to "custom".
var stylePhrases = map[string]string{
	"Bold & Graphic":  "eye-catching thumbnail, bold typography, vibrant colors, expressive facial reaction, dramatic lighting, high contrast, click-worthy composition, professional style",
	"Tech/Futuristic": "futuristic thumbnail, sleek modern design, digital UI elements, glowing accents, holographic effects, cyber-tech aesthetic, sharp lighting, high-tech atmosphere",
	"Minimalist":      "minimalist thumbnail, clean layout, simple shapes, limited color palette, plenty of negative space, modern flat design, clear focal point",
	"Photorealistic":  "photorealistic thumbnail, ultra-realistic lighting, natural skin tones, candid moment, DSLR-style photography, lifestyle realism, shallow depth of field",
	"Illustrated":     "illustrated thumbnail, custom digital illustration, stylized characters, bold outlines, vibrant colors, creative cartoon or vector art style",
}

var colorSchemePhrases = map[string]string{
	"vibrant":    "vibrant and energetic colors, high saturation, bold contrasts, eye-catching palette",
	"sunset":     "warm sunset tones, orange pink and purple hues, soft gradients, cinematic glow",
	"forest":     "natural green tones, earthy colors, calm and organic palette, fresh atmosphere",
	"neon":       "neon glow effects, electric blues and pinks, cyberpunk lighting, high contrast glow",
	"purple":     "purple-dominant color palette, magenta and violet tones, modern and stylish mood",
	"monochrome": "black and white color scheme, high contrast, dramatic lighting, timeless aesthetic",
	"ocean":      "cool blue and teal tones, aquatic color palette, fresh and clean atmosphere",
	"pastel":     "soft pastel colors, low saturation, gentle tones, calm and aesthetic",
}

// templatePackPhrases override the base style with a creator-specific look.
// They are appended after the style fragment so they dominate its tone.
var templatePackPhrases = map[string]string{
	"MrBeast": "hyper-dramatic MrBeast style thumbnail, extreme facial expression, open mouth shock, high saturation, red arrows, massive scale elements, high stakes atmosphere, viral aesthetic, clean bold text",
	"Podcast": "professional podcast thumbnail, studio lighting, two people talking, microphone prominently visible, blurred background, split screen composition, high quality portraiture, engaging conversation vibe",
	"Gaming":  "explosive gaming thumbnail, dynamic action shot, game character or avatar, glitch effects, neon lighting, speed lines, intense energy, victory or shock moment, esports aesthetic",
	"Finance": "finance and crypto thumbnail, rising green charts, money elements, gold coins, shocked or serious expression, professional suit, blurred city background, clean minimalistic text overlay",
}

// PromptInput carries everything that contributes to the final prompt.
type PromptInput struct {
	Title           string
	Style           string
	ColorScheme     string
	TemplatePack    string
	FaceDescription string
	UserPrompt      string
	AspectRatio     string
}

// AssemblePrompt builds the single natural-language instruction sent to the
// image model. It is a pure function over the lookup tables above; no length
// limit is enforced on the result.
func AssemblePrompt(in PromptInput) string {
	var b strings.Builder

	style, ok := stylePhrases[in.Style]
	if !ok {
		style = "custom"
	}
	fmt.Fprintf(&b, "Create a %s thumbnail for: %q. ", style, in.Title)

	if pack, ok := templatePackPhrases[in.TemplatePack]; ok {
		fmt.Fprintf(&b, "\nSTYLE OVERRIDE: %s. ", pack)
	}

	if in.FaceDescription != "" {
		fmt.Fprintf(&b, "\nCHARACTER DETAILS: The main character in the thumbnail MUST look like this: %s. ", in.FaceDescription)
		b.WriteString("Ensure the facial features, hair, and age match exactly. ")
	}

	if in.ColorScheme != "" {
		color, ok := colorSchemePhrases[in.ColorScheme]
		if !ok {
			color = "vibrant"
		}
		fmt.Fprintf(&b, "Use a %s color scheme. ", color)
	}

	if in.UserPrompt != "" {
		fmt.Fprintf(&b, "Additional details: %s. ", in.UserPrompt)
	}

	aspect := in.AspectRatio
	if aspect == "" {
		aspect = domain.DefaultAspectRatio
	}
	fmt.Fprintf(&b, "The thumbnail should be %s, visually stunning, designed to maximize click-through rate.", aspect)

	return b.String()
}
