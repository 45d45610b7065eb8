package format

import (
	"fmt"
	"regexp"
)

// Transform rewrites the whole text in one pass.
type Transform struct {
	Name  string
	Apply func(string) string
}

var (
	bulletPattern = regexp.MustCompile(`(?m)^\*[ \t]+`)
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	labelPattern  = regexp.MustCompile(`(\*\*D:\*\*|\*\*Título:\*\*|\*\*Criado em:\*\*|\*\*Esquema:\*\*)`)
)

// BulletNormalize turns a line-leading "* " into "• ".
var BulletNormalize = Transform{
	Name: "bullet-normalize",
	Apply: func(s string) string {
		return bulletPattern.ReplaceAllString(s, "• ")
	},
}

// BoldStrip unwraps **text** spans on a single line.
var BoldStrip = Transform{
	Name: "bold-strip",
	Apply: func(s string) string {
		return boldPattern.ReplaceAllString(s, "$1")
	},
}

// LabelBreak moves the bold document labels onto their own indented line.
// It only matches while the ** markers are still present.
var LabelBreak = Transform{
	Name: "label-break",
	Apply: func(s string) string {
		return labelPattern.ReplaceAllString(s, "\n  $1")
	},
}

// LabelMode selects where LabelBreak sits relative to BoldStrip.
type LabelMode string

const (
	// LabelAfterBold runs the label break after bold markers are gone, so it never fires.
	LabelAfterBold LabelMode = "after_bold"
	// LabelBeforeBold breaks labels first and then strips the markers.
	LabelBeforeBold LabelMode = "before_bold"
	// LabelOff leaves LabelBreak out.
	LabelOff LabelMode = "off"
)

// ParseLabelMode maps a config value to a LabelMode. Empty means LabelAfterBold.
func ParseLabelMode(s string) (LabelMode, error) {
	switch LabelMode(s) {
	case "", LabelAfterBold:
		return LabelAfterBold, nil
	case LabelBeforeBold, LabelOff:
		return LabelMode(s), nil
	}
	return "", fmt.Errorf("unknown label break mode %q", s)
}

// Pipeline applies its transforms in order.
type Pipeline []Transform

// NewPipeline returns the normalizer for mode.
func NewPipeline(mode LabelMode) Pipeline {
	switch mode {
	case LabelBeforeBold:
		return Pipeline{BulletNormalize, LabelBreak, BoldStrip}
	case LabelOff:
		return Pipeline{BulletNormalize, BoldStrip}
	default:
		return Pipeline{BulletNormalize, BoldStrip, LabelBreak}
	}
}

// Normalize runs every transform over text.
func (p Pipeline) Normalize(text string) string {
	for _, t := range p {
		text = t.Apply(text)
	}
	return text
}

// Names lists the transform names in order.
func (p Pipeline) Names() []string {
	names := make([]string, 0, len(p))
	for _, t := range p {
		names = append(names, t.Name)
	}
	return names
}
