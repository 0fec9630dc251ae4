// Package format maps a logical output kind and a file extension to a
// concrete encode/decode routine.
//
// The registry is a closed table populated at construction: unknown
// (kind, extension) combinations are a lookup miss reported as
// ErrUnsupportedFormat, never a runtime type switch at the call site.
// JSON and YAML are valid under both kinds, so the caller's entry point
// (tabular vs document) fixes the kind rather than inferring intent
// from content shape.
package format

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/datakit-io/datakit/document"
	"github.com/datakit-io/datakit/tabular"
)

// Kind is the logical payload kind selecting a codec family.
type Kind string

const (
	// KindTabular selects codecs for one or many named 2-D datasets.
	KindTabular Kind = "tabular"

	// KindDocument selects codecs for rich or opaque documents.
	KindDocument Kind = "document"
)

// Extension identifies a file format by its canonical suffix (no dot).
type Extension string

// Supported extensions.
const (
	ExtCSV      Extension = "csv"
	ExtXLSX     Extension = "xlsx"
	ExtParquet  Extension = "parquet"
	ExtJSON     Extension = "json"
	ExtYAML     Extension = "yaml"
	ExtDOCX     Extension = "docx"
	ExtMarkdown Extension = "md"
	ExtPDF      Extension = "pdf"
	ExtPPTX     Extension = "pptx"
)

// Sentinel errors for codec dispatch.
var (
	// ErrUnsupportedFormat is returned when no codec exists for a
	// (kind, extension) pair.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidPayload is returned when a payload's shape does not
	// match the requested codec's expectations (e.g. a ragged table).
	ErrInvalidPayload = errors.New("invalid payload")
)

// ParseExtension normalizes a user-supplied extension string. A leading
// dot and mixed case are accepted; "yml" and "markdown" fold to their
// canonical forms.
func ParseExtension(s string) (Extension, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch s {
	case "yml":
		s = "yaml"
	case "markdown":
		s = "md"
	}
	switch ext := Extension(s); ext {
	case ExtCSV, ExtXLSX, ExtParquet, ExtJSON, ExtYAML, ExtDOCX, ExtMarkdown, ExtPDF, ExtPPTX:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ExtensionOf infers the extension from a file name's suffix.
func ExtensionOf(fileName string) (Extension, error) {
	ext := path.Ext(fileName)
	if ext == "" {
		return "", fmt.Errorf("%w: file name %q has no extension", ErrUnsupportedFormat, fileName)
	}
	return ParseExtension(ext)
}

// EncodeOptions carries per-call codec parameters.
type EncodeOptions struct {
	// SheetName names the single sheet for workbook formats.
	// Empty means "Sheet1".
	SheetName string
}

// TabularCodec encodes and decodes one 2-D dataset.
type TabularCodec interface {
	EncodeTable(t *tabular.Table, opts EncodeOptions) ([]byte, error)
	DecodeTable(data []byte) (*tabular.Table, error)
}

// WorkbookCodec extends TabularCodec for formats that hold several
// named datasets in one file (xlsx).
type WorkbookCodec interface {
	TabularCodec
	EncodeWorkbook(set tabular.TableSet) ([]byte, error)
	DecodeWorkbook(data []byte) (tabular.TableSet, error)
}

// DocumentCodec encodes and decodes one document.
type DocumentCodec interface {
	EncodeDocument(d *document.Document) ([]byte, error)
	DecodeDocument(data []byte) (*document.Document, error)
}

// Registry is the closed (kind, extension) → codec table.
type Registry struct {
	tab map[Extension]TabularCodec
	doc map[Extension]DocumentCodec
}

// Options configures codec construction.
type Options struct {
	// CSVDelimiter is the field separator written by the CSV codec and
	// the sniffing fallback on decode. Zero means ';'.
	CSVDelimiter rune
}

// NewRegistry builds the registry with every supported codec.
func NewRegistry(opts Options) *Registry {
	if opts.CSVDelimiter == 0 {
		opts.CSVDelimiter = ';'
	}

	csv := &csvCodec{delimiter: opts.CSVDelimiter}
	xlsx := &xlsxCodec{}
	parquet := &parquetCodec{}

	return &Registry{
		tab: map[Extension]TabularCodec{
			ExtCSV:     csv,
			ExtXLSX:    xlsx,
			ExtParquet: parquet,
			ExtJSON:    &recordCodec{yaml: false},
			ExtYAML:    &recordCodec{yaml: true},
		},
		doc: map[Extension]DocumentCodec{
			ExtJSON:     &structCodec{yaml: false},
			ExtYAML:     &structCodec{yaml: true},
			ExtMarkdown: &markdownCodec{},
			ExtPDF:      &pdfCodec{},
			ExtDOCX:     &containerCodec{ext: ExtDOCX},
			ExtPPTX:     &containerCodec{ext: ExtPPTX},
		},
	}
}

// Tabular returns the tabular codec for ext.
func (r *Registry) Tabular(ext Extension) (TabularCodec, error) {
	c, ok := r.tab[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no tabular codec for %q", ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// Workbook returns the workbook codec for ext, when ext supports
// multiple sheets per file.
func (r *Registry) Workbook(ext Extension) (WorkbookCodec, bool) {
	c, ok := r.tab[ext]
	if !ok {
		return nil, false
	}
	wb, ok := c.(WorkbookCodec)
	return wb, ok
}

// Document returns the document codec for ext.
func (r *Registry) Document(ext Extension) (DocumentCodec, error) {
	c, ok := r.doc[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no document codec for %q", ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// Supports reports whether a codec exists for the (kind, extension) pair.
func (r *Registry) Supports(kind Kind, ext Extension) bool {
	switch kind {
	case KindTabular:
		_, ok := r.tab[ext]
		return ok
	case KindDocument:
		_, ok := r.doc[ext]
		return ok
	default:
		return false
	}
}

func invalidPayload(formatStr string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(formatStr, args...))
}
