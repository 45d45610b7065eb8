package format

import (
	"strings"
	"time"
)

const (
	bulletMarker   = "• "
	titleLabel     = "Título:"
	listingHeading = "Aqui estão os documentos"
)

// FieldKind identifies a labelled value inside a document listing item.
type FieldKind string

const (
	FieldFile   FieldKind = "file"
	FieldTitle  FieldKind = "title"
	FieldDate   FieldKind = "date"
	FieldSchema FieldKind = "schema"
)

// fieldRules is checked in order; the first label a part contains wins.
var fieldRules = []struct {
	label string
	kind  FieldKind
}{
	{"D:", FieldFile},
	{"Título:", FieldTitle},
	{"Criado em:", FieldDate},
	{"Esquema:", FieldSchema},
}

// Field is one recognised part of a listing item.
type Field struct {
	Kind  FieldKind
	Value string
}

// Label is the caption shown in front of the value.
func (f Field) Label() string {
	switch f.Kind {
	case FieldFile:
		return "Arquivo:"
	case FieldTitle:
		return "Título:"
	case FieldDate:
		return "Criado em:"
	case FieldSchema:
		return "Esquema:"
	}
	return ""
}

// Color is the cosmetic tag for the field label.
func (f Field) Color() string {
	switch f.Kind {
	case FieldFile:
		return "blue"
	case FieldTitle:
		return "green"
	case FieldDate:
		return "purple"
	case FieldSchema:
		return "orange"
	}
	return "gray"
}

// BlockKind identifies a rendered block.
type BlockKind string

const (
	BlockHeading      BlockKind = "heading"
	BlockList         BlockKind = "list"
	BlockParagraph    BlockKind = "paragraph"
	BlockPreformatted BlockKind = "preformatted"
)

// Block is one rendered section. Items is only set for BlockList.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Items [][]Field `json:"items,omitempty"`
}

// Document is the rendered form of a normalized response.
type Document struct {
	Structured bool    `json:"structured"`
	Blocks     []Block `json:"blocks"`
}

// IsDocumentListing reports whether text follows the bulleted document listing convention.
func IsDocumentListing(text string) bool {
	return strings.Contains(text, bulletMarker) && strings.Contains(text, titleLabel)
}

// Renderer builds Documents. Dates are shown in Loc.
type Renderer struct {
	Loc *time.Location
}

// NewRenderer returns a Renderer for loc; nil means UTC.
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{Loc: loc}
}

// Render never fails; text that is not a listing becomes one preformatted block.
func (r *Renderer) Render(text string) Document {
	if !IsDocumentListing(text) {
		return Document{Blocks: []Block{{Kind: BlockPreformatted, Text: text}}}
	}

	doc := Document{Structured: true}
	for _, section := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(section)
		switch {
		case strings.HasPrefix(trimmed, listingHeading):
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeading, Text: trimmed})
		case strings.Contains(section, bulletMarker):
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockList, Items: r.listItems(section)})
		default:
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: section})
		}
	}
	return doc
}

func (r *Renderer) listItems(section string) [][]Field {
	var items [][]Field
	for _, line := range strings.Split(section, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "•") {
			continue
		}
		item := strings.Replace(line, bulletMarker, "", 1)
		fields := []Field{}
		for _, part := range strings.Split(item, ", ") {
			if f, ok := r.classify(part); ok {
				fields = append(fields, f)
			}
		}
		items = append(items, fields)
	}
	return items
}

func (r *Renderer) classify(part string) (Field, bool) {
	for _, rule := range fieldRules {
		if !strings.Contains(part, rule.label) {
			continue
		}
		value := strings.TrimSpace(strings.Replace(part, rule.label, "", 1))
		if rule.kind == FieldDate {
			value = r.formatDate(value)
		}
		return Field{Kind: rule.kind, Value: value}, true
	}
	return Field{}, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	dateOnlyLayout,
}

const dateOnlyLayout = "2006-01-02"

// formatDate renders value the pt-BR way (02/01/2006, 15:04:05). Unparseable values are kept as is.
func (r *Renderer) formatDate(value string) string {
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		// date-only values are UTC midnight; other layouts without a zone are wall-clock times in the display location
		if strings.Contains(layout, "Z07") || layout == dateOnlyLayout {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, r.Loc)
		}
		if err == nil {
			return t.In(r.Loc).Format("02/01/2006, 15:04:05")
		}
	}
	return value
}
