package format

import (
	"fmt"
	"time"
	// containers often ship without zoneinfo
	_ "time/tzdata"
)

// Formatter runs parse, normalize and render over a raw webhook response.
type Formatter struct {
	pipeline Pipeline
	renderer *Renderer
}

// NewFormatter builds a Formatter from a label break mode and an IANA timezone name.
func NewFormatter(labelBreak, timezone string) (*Formatter, error) {
	mode, err := ParseLabelMode(labelBreak)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
		}
	}
	return &Formatter{pipeline: NewPipeline(mode), renderer: NewRenderer(loc)}, nil
}

// Location is where dates are displayed.
func (f *Formatter) Location() *time.Location {
	return f.renderer.Loc
}

// FormatText turns the raw body into display text. Only Wrapped and Raw text is normalized.
func (f *Formatter) FormatText(raw string) string {
	if raw == "" {
		return ""
	}
	switch env := Parse(raw).(type) {
	case Wrapped:
		return f.pipeline.Normalize(env.Text)
	case JSON:
		return env.Pretty
	case Raw:
		return f.pipeline.Normalize(env.Text)
	default:
		return raw
	}
}

// Rendered is a formatted response ready for display.
type Rendered struct {
	Text     string   `json:"text"`
	HTML     string   `json:"html"`
	Document Document `json:"document"`
}

// Format runs the whole chain.
func (f *Formatter) Format(raw string) Rendered {
	text := f.FormatText(raw)
	doc := f.renderer.Render(text)
	return Rendered{Text: text, HTML: doc.HTML(), Document: doc}
}
