package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/datakit-io/datakit/tabular"
	"github.com/parquet-go/parquet-go"
)

// parquetCodec stores a table as a parquet file with one string column
// per table column. Parquet groups order fields alphabetically, so
// column order is normalized on the way through; callers that need the
// original order should prefer csv or xlsx.
type parquetCodec struct{}

var _ TabularCodec = (*parquetCodec)(nil)

func (p *parquetCodec) EncodeTable(t *tabular.Table, _ EncodeOptions) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, invalidPayload("parquet: %v", err)
	}

	group := parquet.Group{}
	for _, c := range t.Columns {
		group[c] = parquet.String()
	}
	schema := parquet.NewSchema("table", group)

	records := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			rec[c] = row[j]
		}
		records[i] = rec
	}

	var buf bytes.Buffer
	if err := parquet.Write(&buf, records, schema); err != nil {
		return nil, fmt.Errorf("parquet: write: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeTable reads rows through the file's own schema. Column values
// arrive as parquet.Value leaves indexed by column, which maps directly
// onto the schema's (alphabetical) field order.
func (p *parquetCodec) DecodeTable(data []byte) (*tabular.Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, invalidPayload("parquet: open: %v", err)
	}

	fields := f.Schema().Fields()
	columns := make([]string, len(fields))
	for i, fld := range fields {
		columns[i] = fld.Name()
	}

	t := &tabular.Table{Columns: columns}
	for _, rg := range f.RowGroups() {
		if err := p.readRowGroup(t, rg); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (p *parquetCodec) readRowGroup(t *tabular.Table, rg parquet.RowGroup) error {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, 64)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			out := make([]string, len(t.Columns))
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < len(out) && !v.IsNull() {
					out[c] = v.String()
				}
			}
			t.Rows = append(t.Rows, out)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return invalidPayload("parquet: read rows: %v", err)
		}
		if n == 0 {
			return nil
		}
	}
}
