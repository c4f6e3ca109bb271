package thumbgen

import (
	"strings"
	"testing"
)

func TestAssemblePromptKnownStyles(t *testing.T) {
	for style, phrase := range stylePhrases {
		got := AssemblePrompt(PromptInput{Title: "Test Video", Style: style})
		if !strings.Contains(got, phrase) {
			t.Fatalf("style %q: prompt missing phrase %q:\n%s", style, phrase, got)
		}
	}
}

func TestAssemblePromptUnknownStyleFallsBack(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Vaporwave"})
	if !strings.Contains(got, "Create a custom thumbnail for:") {
		t.Fatalf("expected custom fallback, got:\n%s", got)
	}
}

func TestAssemblePromptKnownColorSchemes(t *testing.T) {
	for scheme, phrase := range colorSchemePhrases {
		got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", ColorScheme: scheme})
		if !strings.Contains(got, "Use a "+phrase+" color scheme.") {
			t.Fatalf("scheme %q: prompt missing phrase %q:\n%s", scheme, phrase, got)
		}
	}
}

func TestAssemblePromptUnknownColorSchemeFallsBack(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", ColorScheme: "plaid"})
	if !strings.Contains(got, "Use a vibrant color scheme.") {
		t.Fatalf("expected vibrant fallback, got:\n%s", got)
	}
}

func TestAssemblePromptOmitsColorClauseWhenUnset(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist"})
	if strings.Contains(got, "color scheme") {
		t.Fatalf("expected no color clause, got:\n%s", got)
	}
}

func TestAssemblePromptTemplatePackAfterStyle(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", TemplatePack: "MrBeast"})
	styleIdx := strings.Index(got, stylePhrases["Minimalist"])
	packIdx := strings.Index(got, "STYLE OVERRIDE: "+templatePackPhrases["MrBeast"])
	if styleIdx < 0 || packIdx < 0 {
		t.Fatalf("missing style or pack phrase:\n%s", got)
	}
	if packIdx < styleIdx {
		t.Fatalf("template pack override must follow the base style:\n%s", got)
	}
}

func TestAssemblePromptUnknownTemplatePackIgnored(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", TemplatePack: "Cooking"})
	if strings.Contains(got, "STYLE OVERRIDE") {
		t.Fatalf("unknown template pack should be ignored:\n%s", got)
	}
}

func TestAssemblePromptFaceClause(t *testing.T) {
	desc := "a woman in her 20s with long red hair and green eyes"
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", FaceDescription: desc})
	want := "CHARACTER DETAILS: The main character in the thumbnail MUST look like this: " + desc + ". "
	if !strings.Contains(got, want) {
		t.Fatalf("missing character clause:\n%s", got)
	}
	if !strings.Contains(got, "Ensure the facial features, hair, and age match exactly.") {
		t.Fatalf("missing likeness constraint:\n%s", got)
	}
}

func TestAssemblePromptUserPromptVerbatim(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", UserPrompt: "include a golden retriever"})
	if !strings.Contains(got, "Additional details: include a golden retriever. ") {
		t.Fatalf("missing user prompt:\n%s", got)
	}
}

func TestAssemblePromptClosingClause(t *testing.T) {
	got := AssemblePrompt(PromptInput{Title: "Test Video", Style: "Minimalist", AspectRatio: "9:16"})
	if !strings.HasSuffix(got, "The thumbnail should be 9:16, visually stunning, designed to maximize click-through rate.") {
		t.Fatalf("unexpected closing clause:\n%s", got)
	}
}

func TestAssemblePromptMinimalistOceanScenario(t *testing.T) {
	got := AssemblePrompt(PromptInput{
		Title:       "Test Video",
		Style:       "Minimalist",
		ColorScheme: "ocean",
	})
	if !strings.Contains(got, "minimalist thumbnail, clean layout") {
		t.Fatalf("missing minimalist phrase:\n%s", got)
	}
	if !strings.Contains(got, "cool blue and teal tones, aquatic color palette") {
		t.Fatalf("missing ocean phrase:\n%s", got)
	}
	if !strings.Contains(got, "16:9") || !strings.HasSuffix(got, "maximize click-through rate.") {
		t.Fatalf("missing closing clause:\n%s", got)
	}
}
