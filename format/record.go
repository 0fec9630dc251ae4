package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/datakit-io/datakit/tabular"
	"gopkg.in/yaml.v3"
)

// recordCodec stores a table as a list of records in JSON or YAML.
// Decoding also accepts the column-oriented shape (one list per column)
// and normalizes column order alphabetically, since object keys carry
// no order on the wire.
type recordCodec struct {
	yaml bool
}

var _ TabularCodec = (*recordCodec)(nil)

func (r *recordCodec) EncodeTable(t *tabular.Table, _ EncodeOptions) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, invalidPayload("%s: %v", r.name(), err)
	}
	records := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[c] = row[j]
		}
		records[i] = rec
	}
	if r.yaml {
		return yaml.Marshal(records)
	}
	return json.MarshalIndent(records, "", "  ")
}

func (r *recordCodec) DecodeTable(data []byte) (*tabular.Table, error) {
	var payload any
	if r.yaml {
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, invalidPayload("yaml: %v", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, invalidPayload("json: %v", err)
		}
	}

	switch v := payload.(type) {
	case []any:
		return tableFromRecords(v, r.name())
	case map[string]any:
		return tableFromColumns(v, r.name())
	default:
		return nil, invalidPayload("%s: expected a list of records or a column map, got %T", r.name(), payload)
	}
}

func (r *recordCodec) name() string {
	if r.yaml {
		return "yaml"
	}
	return "json"
}

func tableFromRecords(items []any, name string) (*tabular.Table, error) {
	records := make([]map[string]any, len(items))
	keys := map[string]bool{}
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, invalidPayload("%s: record %d is %T, expected an object", name, i, item)
		}
		records[i] = rec
		for k := range rec {
			keys[k] = true
		}
	}
	if len(keys) == 0 {
		return nil, invalidPayload("%s: no columns found", name)
	}

	columns := sortedKeys(keys)
	t := &tabular.Table{Columns: columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = stringify(rec[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func tableFromColumns(cols map[string]any, name string) (*tabular.Table, error) {
	if len(cols) == 0 {
		return nil, invalidPayload("%s: no columns found", name)
	}
	columns := make([]string, 0, len(cols))
	values := make(map[string][]any, len(cols))
	height := 0
	for k, v := range cols {
		list, ok := v.([]any)
		if !ok {
			return nil, invalidPayload("%s: column %q is %T, expected a list", name, k, v)
		}
		columns = append(columns, k)
		values[k] = list
		if len(list) > height {
			height = len(list)
		}
	}
	sort.Strings(columns)

	t := &tabular.Table{Columns: columns}
	for i := 0; i < height; i++ {
		row := make([]string, len(columns))
		for j, c := range columns {
			if list := values[c]; i < len(list) {
				row[j] = stringify(list[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
