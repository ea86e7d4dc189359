package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Reserved JSON keys of a tea record. Every other key is kept in Extra.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldDescription = "description"
)

// Tea is a single record in the store. Name and ID are each unique across
// the store.
type Tea struct {
	ID          int64
	Name        string
	Description string

	// Extra holds fields the store does not interpret (price, origin, ...).
	// They are written back unchanged on every save.
	Extra map[string]any
}

// TeaInput describes a tea without an identifier. It is what callers hand to
// the upsert service.
type TeaInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Extra       map[string]any `json:"-"`
}

// WithID returns the full record for in with the given identifier.
func (in TeaInput) WithID(id int64) Tea {
	return Tea{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Extra:       cloneExtra(in.Extra),
	}
}

// MarshalJSON writes the record as a flat object: id, name and description
// alongside any extra fields.
func (t Tea) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(t.Extra)+3)
	for k, v := range t.Extra {
		fields[k] = v
	}
	fields[fieldID] = t.ID
	fields[fieldName] = t.Name
	fields[fieldDescription] = t.Description
	return json.Marshal(fields)
}

// UnmarshalJSON reads a flat tea object. Unknown keys land in Extra.
func (t *Tea) UnmarshalJSON(data []byte) error {
	var known struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	v, err := DecodeValue(data)
	if err != nil {
		return err
	}
	all, ok := v.(map[string]any)
	if !ok {
		return errNotObject
	}
	delete(all, fieldID)
	delete(all, fieldName)
	delete(all, fieldDescription)
	if len(all) == 0 {
		all = nil
	}

	*t = Tea{
		ID:          known.ID,
		Name:        known.Name,
		Description: known.Description,
		Extra:       all,
	}
	return nil
}

var errNotObject = errors.New("tea record must be a JSON object")

// DecodeValue decodes a single JSON value the way Extra fields are kept.
// Numbers become float64 when that is lossless and json.Number otherwise, so
// large integers survive a load and save cycle.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return exactNumbers(v), nil
}

func exactNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v
		}
		if b, err := json.Marshal(f); err != nil || string(b) != v.String() {
			return v
		}
		return f
	case map[string]any:
		for k, e := range v {
			v[k] = exactNumbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = exactNumbers(e)
		}
	}
	return v
}

func cloneExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
