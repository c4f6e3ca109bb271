package domain

import "time"

// Style enumerates the selectable visual styles of the generation wizard.
type Style string

const (
	StyleBoldGraphic    Style = "Bold & Graphic"
	StyleTechFuturistic Style = "Tech/Futuristic"
	StyleMinimalist     Style = "Minimalist"
	StylePhotorealistic Style = "Photorealistic"
	StyleIllustrated    Style = "Illustrated"
)

// DefaultAspectRatio is used when the request leaves the ratio blank.
const DefaultAspectRatio = "16:9"

// Thumbnail is one generation attempt. A row exists for every attempt, created
// in generating state before any external call is made; ImageURL stays empty
// until the pipeline completes.
type Thumbnail struct {
	ID           string
	UserID       string
	Title        string
	UserPrompt   string
	Style        string
	ColorScheme  string
	AspectRatio  string
	TemplatePack string
	IsGenerating bool
	ImageURL     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
