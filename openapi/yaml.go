package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalYAML implements yaml.Marshaler by bridging through the JSON
// encoding, so YAML output carries the exact key spelling of the JSON
// object model (operationId, requestBody, ...) instead of yaml.v3's
// lowercased field names. Number literals outside float64's exact range
// survive the bridge intact.
func (d *Document) MarshalYAML() (any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return yamlValue(data)
}

// yamlValue decodes JSON into plain maps/slices/scalars suitable for
// yaml.v3. Numbers are decoded as json.Number and converted to native
// integers where they fit, floats otherwise.
func yamlValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return convertNumbers(v)
}

func convertNumbers(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			conv, err := convertNumbers(e)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	case []any:
		for i, e := range val {
			conv, err := convertNumbers(e)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	case json.Number:
		return Number(val).MarshalYAML()
	default:
		return v, nil
	}
}

// JSON serializes the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: serialize document: %w", err)
	}
	return data, nil
}
