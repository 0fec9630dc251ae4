package format

import (
	"strings"

	"github.com/datakit-io/datakit/document"
	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// markdownCodec renders a document as markdown with an optional YAML
// front-matter block. Decoding splits front matter from the body; the
// body is kept as markdown text rather than re-parsed into sections.
type markdownCodec struct{}

var _ DocumentCodec = (*markdownCodec)(nil)

func (m *markdownCodec) EncodeDocument(d *document.Document) ([]byte, error) {
	if d.IsRaw() {
		return nil, invalidPayload("md: document carries an opaque payload")
	}
	if err := d.Validate(); err != nil {
		return nil, invalidPayload("md: %v", err)
	}

	var b strings.Builder
	if len(d.FrontMatter) > 0 {
		fm, err := yaml.Marshal(coerceValues(d.FrontMatter))
		if err != nil {
			return nil, invalidPayload("md: front matter: %v", err)
		}
		b.WriteString(frontMatterDelim + "\n")
		b.Write(fm)
		b.WriteString(frontMatterDelim + "\n\n")
	}
	if d.Title != "" {
		b.WriteString("# " + d.Title + "\n\n")
	}
	for _, s := range d.Sections {
		writeSection(&b, s)
	}
	if d.Body != "" {
		b.WriteString(d.Body)
		if !strings.HasSuffix(d.Body, "\n") {
			b.WriteString("\n")
		}
	}
	return []byte(b.String()), nil
}

func (m *markdownCodec) DecodeDocument(data []byte) (*document.Document, error) {
	text := string(data)
	d := &document.Document{}

	if rest, ok := strings.CutPrefix(text, frontMatterDelim+"\n"); ok {
		block, body, found := strings.Cut(rest, "\n"+frontMatterDelim)
		if !found {
			return nil, invalidPayload("md: unterminated front matter")
		}
		fm := map[string]any{}
		if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
			return nil, invalidPayload("md: front matter: %v", err)
		}
		if len(fm) > 0 {
			d.FrontMatter = fm
		}
		text = strings.TrimLeft(body, "\n")
	}

	d.Body = text
	return d, nil
}

func writeSection(b *strings.Builder, s document.Section) {
	if s.Heading != "" {
		level := s.Level
		if level < 1 {
			level = 1
		}
		b.WriteString(strings.Repeat("#", level) + " " + s.Heading + "\n\n")
	}
	if s.Text != "" {
		b.WriteString(s.Text + "\n\n")
	}
	if len(s.Table) > 0 {
		writeTable(b, s.Table)
		b.WriteString("\n")
	}
}

func writeTable(b *strings.Builder, rows [][]string) {
	writeTableRow(b, rows[0])
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeTableRow(b, sep)
	for _, row := range rows[1:] {
		writeTableRow(b, row)
	}
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" " + strings.ReplaceAll(c, "|", "\\|") + " |")
	}
	b.WriteString("\n")
}
