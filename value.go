package datakit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/datakit-io/datakit/format"
)

// decodeValue parses a JSON or YAML payload into a generic value.
func decodeValue(data []byte, ext format.Extension) (any, error) {
	var v any
	if ext == format.ExtYAML {
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", format.ErrInvalidPayload, err)
		}
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: json: %v", format.ErrInvalidPayload, err)
	}
	return v, nil
}
