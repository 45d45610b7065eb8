package format

import (
	"html"
	"strings"
)

// HTML renders the document as an HTML fragment. All text is escaped.
func (d Document) HTML() string {
	var b strings.Builder
	if !d.Structured {
		for _, blk := range d.Blocks {
			b.WriteString(`<pre class="response-pre">`)
			b.WriteString(html.EscapeString(blk.Text))
			b.WriteString(`</pre>`)
		}
		return b.String()
	}

	b.WriteString(`<div class="listing">`)
	for _, blk := range d.Blocks {
		switch blk.Kind {
		case BlockHeading:
			b.WriteString(`<h3 class="listing-heading">`)
			b.WriteString(html.EscapeString(blk.Text))
			b.WriteString(`</h3>`)
		case BlockList:
			b.WriteString(`<div class="listing-items">`)
			for _, item := range blk.Items {
				b.WriteString(`<div class="listing-item">`)
				for _, f := range item {
					b.WriteString(`<div class="field field-`)
					b.WriteString(string(f.Kind))
					b.WriteString(`"><span class="label label-`)
					b.WriteString(f.Color())
					b.WriteString(`">`)
					b.WriteString(html.EscapeString(f.Label()))
					b.WriteString(`</span><span class="value">`)
					b.WriteString(html.EscapeString(f.Value))
					b.WriteString(`</span></div>`)
				}
				b.WriteString(`</div>`)
			}
			b.WriteString(`</div>`)
		default:
			b.WriteString(`<div class="listing-paragraph" style="white-space: pre-wrap;">`)
			b.WriteString(html.EscapeString(blk.Text))
			b.WriteString(`</div>`)
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Text renders the document for a terminal.
func (d Document) Text() string {
	if !d.Structured {
		parts := make([]string, 0, len(d.Blocks))
		for _, blk := range d.Blocks {
			parts = append(parts, blk.Text)
		}
		return strings.Join(parts, "\n\n")
	}

	parts := make([]string, 0, len(d.Blocks))
	for _, blk := range d.Blocks {
		switch blk.Kind {
		case BlockList:
			var b strings.Builder
			for i, item := range blk.Items {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString("•")
				for _, f := range item {
					b.WriteString("\n  ")
					b.WriteString(f.Label())
					b.WriteString(" ")
					b.WriteString(f.Value)
				}
			}
			parts = append(parts, b.String())
		default:
			parts = append(parts, blk.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
