package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Form names used by the travel survey.
const (
	FormTrip       = "form1Data"
	FormHealth     = "form2Data"
	FormPerception = "form3Data"
	FormProfile    = "form6Data"
	FormMetadata   = "metadata"
)

// Form maps a question key to the answer exactly as it was decoded from JSON:
// a string, a float64, a []any of strings or a nested map.
type Form map[string]any

// ResponseData holds the sub-forms of one submission keyed by form name.
type ResponseData map[string]Form

type Record struct {
	ID        string       `json:"_id,omitempty"`
	CreatedAt string       `json:"createdAt,omitempty"`
	Data      ResponseData `json:"data"`

	malformed int
}

// UnmarshalJSON decodes a record leniently: forms that are not JSON objects
// are dropped, a "data" that is not an object leaves the record without
// forms, and a numeric _id is kept as text. Only a record that is not an
// object at all fails.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"_id"`
		CreatedAt json.RawMessage `json:"createdAt"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Record{ID: scalarText(raw.ID), CreatedAt: scalarText(raw.CreatedAt), Data: ResponseData{}}

	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var forms map[string]json.RawMessage
	if err := json.Unmarshal(data, &forms); err != nil {
		r.malformed++
		return nil
	}
	for name, body := range forms {
		body = bytes.TrimSpace(body)
		if bytes.Equal(body, []byte("null")) {
			continue
		}
		var f Form
		if err := json.Unmarshal(body, &f); err != nil {
			r.malformed++
			continue
		}
		r.Data[name] = f
	}
	return nil
}

// Malformed counts the parts of the record that were dropped while decoding.
func (r Record) Malformed() int { return r.malformed }

func scalarText(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	if b[0] == '{' || b[0] == '[' {
		return ""
	}
	return strings.Trim(string(b), `"`)
}

// Form returns the named sub-form. A form submitted as null counts as absent.
func (r Record) Form(name string) (Form, bool) {
	f, ok := r.Data[name]
	return f, ok && f != nil
}

// Answer returns the raw answer for form.field.
func (r Record) Answer(form, field string) (any, bool) {
	f, ok := r.Form(form)
	if !ok {
		return nil, false
	}
	v, ok := f[field]
	return v, ok && v != nil
}
