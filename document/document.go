// Package document defines the in-memory representation of rich
// documents handled by the persistence layer.
//
// A Document is either a plain text body, a structured tree of sections
// (headings, text blocks, simple tables), or an opaque byte container
// for formats the layer stores without interpreting (docx, pptx,
// pre-rendered pdf). Markdown additionally carries front matter that
// round-trips with the body.
package document

import "fmt"

// Section is one ordered element of a structured document.
// Any combination of heading, text, and table may be set.
type Section struct {
	// Heading renders as a heading when non-empty. Level 1 is the
	// top level; zero means level 1.
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Level   int    `json:"level,omitempty" yaml:"level,omitempty"`

	// Text renders as a paragraph block.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Table renders as a table of rows. Rows must be equally wide.
	Table [][]string `json:"table,omitempty" yaml:"table,omitempty"`
}

// Document is one rich document payload.
type Document struct {
	// Title renders as the document title where the format supports one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// FrontMatter holds key-value content. For markdown it becomes the
	// YAML front-matter block; for JSON/YAML it is inlined.
	FrontMatter map[string]any `json:"front_matter,omitempty" yaml:"front_matter,omitempty"`

	// Body is the plain text body.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`

	// Sections is the structured tree, rendered in order.
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Raw is the opaque container payload. When set, byte-oriented
	// codecs (docx, pptx, pdf) store it verbatim and ignore the other
	// fields.
	Raw []byte `json:"-" yaml:"-"`
}

// FromText wraps a plain text body in a Document.
func FromText(body string) *Document {
	return &Document{Body: body}
}

// FromBytes wraps an opaque container payload in a Document.
func FromBytes(data []byte) *Document {
	return &Document{Raw: data}
}

// IsRaw reports whether the document carries only an opaque payload.
func (d *Document) IsRaw() bool {
	return len(d.Raw) > 0
}

// Validate checks structural constraints that the renderers rely on:
// section tables must be rectangular and heading levels sensible.
func (d *Document) Validate() error {
	for i, s := range d.Sections {
		if s.Level < 0 {
			return fmt.Errorf("section %d: negative heading level", i)
		}
		if len(s.Table) > 0 {
			width := len(s.Table[0])
			if width == 0 {
				return fmt.Errorf("section %d: table has empty rows", i)
			}
			for j, row := range s.Table {
				if len(row) != width {
					return fmt.Errorf("section %d: table row %d has %d cells, expected %d", i, j, len(row), width)
				}
			}
		}
	}
	return nil
}
