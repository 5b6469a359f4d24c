package extraction

import "encoding/json"

// The analyzer wraps every extracted value in a typed envelope:
// valueString / valueNumber / valueDate for scalars, valueObject for
// nested records, valueArray for sequences. A field with no value key is
// one the analyzer could not extract and normalizes to nil.

// normalizeResult flattens an operation result into plain field values.
// Fields are gathered across all contents entries (pages/documents);
// later pages win on name collisions, matching how the analyzer reports
// multi-page documents.
func normalizeResult(result json.RawMessage) map[string]any {
	fields := make(map[string]any)
	if len(result) == 0 {
		return fields
	}

	var parsed struct {
		Contents []struct {
			Fields map[string]json.RawMessage `json:"fields"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return fields
	}

	for _, content := range parsed.Contents {
		for name, raw := range content.Fields {
			fields[name] = normalizeField(raw)
		}
	}
	return fields
}

// normalizeField unwraps one typed field envelope recursively.
func normalizeField(raw json.RawMessage) any {
	var field map[string]json.RawMessage
	if err := json.Unmarshal(raw, &field); err != nil {
		return nil
	}

	// Scalar value keys, checked in priority order.
	for _, key := range []string{"valueString", "valueNumber", "valueDate"} {
		if v, ok := field[key]; ok {
			var out any
			if json.Unmarshal(v, &out) == nil {
				return out
			}
			return nil
		}
	}

	if v, ok := field["valueObject"]; ok {
		var obj map[string]json.RawMessage
		if json.Unmarshal(v, &obj) != nil {
			return nil
		}
		out := make(map[string]any, len(obj))
		for name, sub := range obj {
			out[name] = normalizeField(sub)
		}
		return out
	}

	if v, ok := field["valueArray"]; ok {
		var arr []json.RawMessage
		if json.Unmarshal(v, &arr) != nil {
			return nil
		}
		out := make([]any, 0, len(arr))
		for _, item := range arr {
			out = append(out, normalizeField(item))
		}
		return out
	}

	// No value key: the analyzer could not extract this field.
	return nil
}
