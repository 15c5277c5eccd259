package snow

import (
	"bytes"
	"encoding/json"
)

// Field is a single column value from the Table API. Reference columns
// arrive either as a bare scalar or, when display values are requested,
// as an object carrying the display value and the underlying sys_id.
type Field struct {
	scalar  string
	display string
	value   string
	link    string
	isRef   bool
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '{' {
		var ref struct {
			DisplayValue string `json:"display_value"`
			Value        string `json:"value"`
			Link         string `json:"link"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		f.isRef = true
		f.display = ref.DisplayValue
		f.value = ref.Value
		f.link = ref.Link
		return nil
	}

	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		// Numbers and booleans keep their literal text.
		f.scalar = string(data)
		return nil
	}
	f.scalar = scalar
	return nil
}

// Display returns the human-readable form of the field: the display value
// for reference objects, the raw scalar unchanged otherwise.
func (f Field) Display() string {
	if f.isRef {
		return f.display
	}
	return f.scalar
}

// Value returns the underlying value: the sys_id for reference objects,
// the raw scalar otherwise.
func (f Field) Value() string {
	if f.isRef {
		return f.value
	}
	return f.scalar
}

// IsReference reports whether the field arrived as a reference object.
func (f Field) IsReference() bool {
	return f.isRef
}

// Record is a single row from a table, keyed by column name.
type Record map[string]Field

// Display returns the display form of a column, or "" when absent.
func (r Record) Display(key string) string {
	return r[key].Display()
}

// Value returns the underlying value of a column, or "" when absent.
func (r Record) Value(key string) string {
	return r[key].Value()
}
