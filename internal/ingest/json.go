// JSON decoding: a top-level array of objects, NDJSON, or both in sequence.
// Numbers decode through json.Number so integral values stay int64.

package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"tabsynth/internal/table"
)

// readJSON decodes objects from r into a table. The column set is the union
// of all object keys in first-seen document order; keys absent from a record
// yield nil cells. Nested objects and arrays are not tabular and fail with
// *FormatError.
func readJSON(r io.Reader, source string) (*table.Table, error) {
	dec := json.NewDecoder(r)

	var cols []string
	seen := make(map[string]bool)
	var recs []map[string]any

	addObject := func(raw json.RawMessage) error {
		keys, err := objectKeys(raw)
		if err != nil {
			return &FormatError{Source: source, Reason: fmt.Sprintf("decode object: %v", err)}
		}
		vdec := json.NewDecoder(bytes.NewReader(raw))
		vdec.UseNumber()
		var m map[string]any
		if err := vdec.Decode(&m); err != nil {
			return &FormatError{Source: source, Reason: fmt.Sprintf("decode object: %v", err)}
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
		recs = append(recs, m)
		return nil
	}

	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, &FormatError{Source: source, Reason: fmt.Sprintf("decode: %v", err)}
		}

		trimmed := bytes.TrimLeft(raw, " \t\r\n")
		switch {
		case len(trimmed) > 0 && trimmed[0] == '{':
			if err := addObject(raw); err != nil {
				return nil, err
			}
		case len(trimmed) > 0 && trimmed[0] == '[':
			var elems []json.RawMessage
			if err := json.Unmarshal(raw, &elems); err != nil {
				return nil, &FormatError{Source: source, Reason: fmt.Sprintf("decode array: %v", err)}
			}
			for i, elem := range elems {
				et := bytes.TrimLeft(elem, " \t\r\n")
				if len(et) == 0 || et[0] != '{' {
					return nil, &FormatError{Source: source, Reason: fmt.Sprintf("array element %d is not an object", i)}
				}
				if err := addObject(elem); err != nil {
					return nil, err
				}
			}
		default:
			return nil, &FormatError{Source: source, Reason: "top-level JSON value is neither an object nor an array of objects"}
		}
	}

	if len(recs) == 0 {
		return nil, &FormatError{Source: source, Reason: "json input contains no records"}
	}
	if len(cols) == 0 {
		return nil, &FormatError{Source: source, Reason: "json objects contain no fields"}
	}

	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}
	row := make([]any, len(cols))
	for _, m := range recs {
		for i, c := range cols {
			v, ok := m[c]
			if !ok {
				row[i] = nil
				continue
			}
			mapped, err := fromJSONValue(v)
			if err != nil {
				return nil, &FormatError{Source: source, Reason: fmt.Sprintf("field %q: %v", c, err)}
			}
			row[i] = mapped
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// fromJSONValue maps a decoded JSON value into the table value domain.
func fromJSONValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return x, nil
	case string:
		return x, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", x.String(), err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("nested %T values are not tabular", v)
	}
}

// objectKeys returns the top-level keys of a raw JSON object in document
// order. Maps lose that order, so the keys are read off the token stream.
func objectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, want string", kt)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipValue consumes exactly one JSON value from the token stream.
func skipValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := t.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := t.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
