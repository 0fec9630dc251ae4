package format

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/datakit-io/datakit/tabular"
)

// csvCodec writes and reads delimiter-separated text. Decoding sniffs
// the separator from the header line among the common candidates and
// falls back to the configured delimiter when the line is ambiguous.
type csvCodec struct {
	delimiter rune
}

var _ TabularCodec = (*csvCodec)(nil)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

func (c *csvCodec) EncodeTable(t *tabular.Table, _ EncodeOptions) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, invalidPayload("csv: %v", err)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = c.delimiter
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *csvCodec) DecodeTable(data []byte) (*tabular.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data, c.delimiter)

	header, err := r.Read()
	if err == io.EOF {
		return nil, invalidPayload("csv: empty input")
	}
	if err != nil {
		return nil, invalidPayload("csv: read header: %v", err)
	}

	t := &tabular.Table{Columns: header}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalidPayload("csv: read row %d: %v", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// sniffDelimiter picks the candidate occurring most often in the first
// line. A candidate must beat the fallback's own count outright, so
// ties and a zero count keep the fallback.
func sniffDelimiter(data []byte, fallback rune) rune {
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := fallback, strings.Count(line, string(fallback))
	for _, cand := range delimiterCandidates {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}
