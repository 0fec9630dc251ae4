package format

import (
	"encoding/json"
	"time"

	"github.com/datakit-io/datakit/document"
	"gopkg.in/yaml.v3"
)

// structCodec stores a document's structured fields as JSON or YAML.
// time.Time values inside front matter are coerced to RFC 3339 strings
// so both formats carry the same representation.
type structCodec struct {
	yaml bool
}

var _ DocumentCodec = (*structCodec)(nil)

func (s *structCodec) EncodeDocument(d *document.Document) ([]byte, error) {
	if d.IsRaw() {
		return nil, invalidPayload("%s: document carries an opaque payload", s.name())
	}
	if err := d.Validate(); err != nil {
		return nil, invalidPayload("%s: %v", s.name(), err)
	}

	out := *d
	out.FrontMatter = coerceValues(d.FrontMatter)
	if s.yaml {
		return yaml.Marshal(&out)
	}
	return json.MarshalIndent(&out, "", "  ")
}

func (s *structCodec) DecodeDocument(data []byte) (*document.Document, error) {
	var d document.Document
	if s.yaml {
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, invalidPayload("yaml: %v", err)
		}
	} else {
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, invalidPayload("json: %v", err)
		}
	}
	return &d, nil
}

func (s *structCodec) name() string {
	if s.yaml {
		return "yaml"
	}
	return "json"
}

func coerceValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = coerceValue(v)
	}
	return out
}

func coerceValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case map[string]any:
		return coerceValues(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = coerceValue(item)
		}
		return out
	default:
		return v
	}
}
