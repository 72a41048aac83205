package ingest

import (
	"errors"
	"strings"
	"testing"
)

/*
parseJSON runs readJSON over a literal document and fails the test on error.
*/
func parseJSON(t *testing.T, doc string) (cols []string, rows [][]any) {
	t.Helper()
	tbl, err := readJSON(strings.NewReader(doc), "test.json")
	if err != nil {
		t.Fatalf("readJSON: %v", err)
	}
	out := make([][]any, tbl.NumRows())
	for i := range out {
		out[i] = tbl.Row(i)
	}
	return tbl.Columns(), out
}

func TestReadJSON_Array(t *testing.T) {
	doc := `[
	  {"id": 1, "name": "a", "score": 4.5},
	  {"id": 2, "name": "b", "score": 3}
	]`
	cols, rows := parseJSON(t, doc)

	if strings.Join(cols, ",") != "id,name,score" {
		t.Fatalf("columns = %v, want [id name score]", cols)
	}
	// Integral numbers arrive as int64, fractional as float64, per cell.
	if v, ok := rows[0][0].(int64); !ok || v != 1 {
		t.Fatalf("id[0] = %#v, want int64(1)", rows[0][0])
	}
	if v, ok := rows[0][2].(float64); !ok || v != 4.5 {
		t.Fatalf("score[0] = %#v, want float64(4.5)", rows[0][2])
	}
	if v, ok := rows[1][2].(int64); !ok || v != 3 {
		t.Fatalf("score[1] = %#v, want int64(3)", rows[1][2])
	}
}

func TestReadJSON_NDJSON(t *testing.T) {
	doc := `{"id": 1, "flag": true}
{"id": 2, "flag": false}
{"id": 3, "flag": null}`
	cols, rows := parseJSON(t, doc)

	if strings.Join(cols, ",") != "id,flag" {
		t.Fatalf("columns = %v, want [id flag]", cols)
	}
	if rows[1][1] != false {
		t.Fatalf("flag[1] = %#v, want false", rows[1][1])
	}
	if rows[2][1] != nil {
		t.Fatalf("flag[2] = %#v, want nil", rows[2][1])
	}
}

func TestReadJSON_ColumnUnionFirstSeen(t *testing.T) {
	// The second record widens the column set; the first record's missing
	// cell reads back as nil.
	doc := `{"b": 1, "a": 2}
{"a": 3, "c": 4}`
	cols, rows := parseJSON(t, doc)

	if strings.Join(cols, ",") != "b,a,c" {
		t.Fatalf("columns = %v, want document order [b a c]", cols)
	}
	if rows[0][2] != nil {
		t.Fatalf("c[0] = %#v, want nil", rows[0][2])
	}
	if v, ok := rows[1][2].(int64); !ok || v != 4 {
		t.Fatalf("c[1] = %#v, want int64(4)", rows[1][2])
	}
	if rows[1][0] != nil {
		t.Fatalf("b[1] = %#v, want nil", rows[1][0])
	}
}

func TestReadJSON_ArrayThenTrailingObjects(t *testing.T) {
	doc := `[{"id": 1}]
{"id": 2}`
	_, rows := parseJSON(t, doc)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestReadJSON_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"top-level scalar", `42`},
		{"array of scalars", `[1, 2]`},
		{"nested object", `{"id": 1, "addr": {"city": "x"}}`},
		{"nested array", `{"id": 1, "tags": ["a"]}`},
		{"empty input", ``},
		{"empty objects", `{}`},
	}
	for _, tt := range tests {
		tt := tt // capture
		t.Run(tt.name, func(t *testing.T) {
			_, err := readJSON(strings.NewReader(tt.doc), "test.json")
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FormatError", err)
			}
		})
	}
}

func TestObjectKeys_DocumentOrder(t *testing.T) {
	keys, err := objectKeys([]byte(`{"z": 1, "a": {"nested": [1,2]}, "m": "x"}`))
	if err != nil {
		t.Fatalf("objectKeys: %v", err)
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Fatalf("keys = %v, want [z a m]", keys)
	}
}
