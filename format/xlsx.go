package format

import (
	"bytes"
	"fmt"

	"github.com/datakit-io/datakit/tabular"
	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// xlsxCodec writes and reads Office Open XML workbooks. A single table
// becomes a one-sheet workbook; DecodeTable reads the first sheet only.
type xlsxCodec struct{}

var _ WorkbookCodec = (*xlsxCodec)(nil)

func (x *xlsxCodec) EncodeTable(t *tabular.Table, opts EncodeOptions) ([]byte, error) {
	name := opts.SheetName
	if name == "" {
		name = defaultSheetName
	}
	return x.EncodeWorkbook(tabular.TableSet{{Name: name, Table: t}})
}

func (x *xlsxCodec) DecodeTable(data []byte) (*tabular.Table, error) {
	set, err := x.DecodeWorkbook(data)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, invalidPayload("xlsx: workbook has no sheets")
	}
	return set[0].Table, nil
}

func (x *xlsxCodec) EncodeWorkbook(set tabular.TableSet) ([]byte, error) {
	if err := set.Validate(); err != nil {
		return nil, invalidPayload("xlsx: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range set {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.Name); err != nil {
				return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sh.Name); err != nil {
				return nil, fmt.Errorf("xlsx: add sheet %q: %w", sh.Name, err)
			}
		}
		if err := writeSheet(f, sh.Name, sh.Table); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (x *xlsxCodec) DecodeWorkbook(data []byte) (tabular.TableSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, invalidPayload("xlsx: open workbook: %v", err)
	}
	defer f.Close()

	var set tabular.TableSet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("xlsx: read sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		t := &tabular.Table{Columns: rows[0]}
		for _, row := range rows[1:] {
			t.Rows = append(t.Rows, padRow(row, len(t.Columns)))
		}
		set = append(set, tabular.Sheet{Name: name, Table: t})
	}
	if len(set) == 0 {
		return nil, invalidPayload("xlsx: workbook has no populated sheets")
	}
	return set, nil
}

func writeSheet(f *excelize.File, name string, t *tabular.Table) error {
	if err := setRow(f, name, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write row %d on %q: %w", row, sheet, err)
	}
	return nil
}

// padRow right-pads a row with empty cells. Sheet readers drop trailing
// blanks, so rows narrower than the header are widened back.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
