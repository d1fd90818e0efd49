package aggregator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"survey-insights-go/internal/types"
)

// Unknown is the bucket a record lands in when it has the form a dimension
// reads from but not the answer itself.
const Unknown = "unknown"

// None is the bucket for a multi-select question answered with no options.
const None = "none"

// Dimension is a named categorical attribute of a response record.
type Dimension struct {
	Name string
	// Requires names the form that must be present for the record to be
	// counted at all. Empty means the dimension has no such requirement.
	Requires string
	// Extract returns the value and whether it was present.
	Extract func(types.Record) (string, bool)
}

// FieldDimension reads a single answer from form.field.
func FieldDimension(name, form, field string) Dimension {
	return Dimension{
		Name:     name,
		Requires: form,
		Extract: func(r types.Record) (string, bool) {
			v, ok := r.Answer(form, field)
			if !ok {
				return "", false
			}
			return NormalizeAnswer(v)
		},
	}
}

// Bucketed maps the present values of d through fn. Values mapped to the
// empty string are treated as missing.
func Bucketed(d Dimension, fn func(string) string) Dimension {
	inner := d.Extract
	d.Extract = func(r types.Record) (string, bool) {
		v, ok := inner(r)
		if !ok {
			return "", false
		}
		v = fn(v)
		return v, v != ""
	}
	return d
}

// Selection is a multi-select question, e.g. the list of symptoms reported.
type Selection struct {
	Name     string
	Requires string
	Extract  func(types.Record) []string
}

// SelectionField reads a multi-select answer from form.field. A single
// string answer is treated as a one-option selection.
func SelectionField(name, form, field string) Selection {
	return Selection{
		Name:     name,
		Requires: form,
		Extract: func(r types.Record) []string {
			v, ok := r.Answer(form, field)
			if !ok {
				return nil
			}
			return answerOptions(v)
		},
	}
}

// NormalizeAnswer turns a decoded JSON answer into a category label.
// Multi-valued answers are sorted and joined so equal sets share a label.
func NormalizeAnswer(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case []any, []string:
		opts := answerOptions(x)
		if len(opts) == 0 {
			return "", false
		}
		return strings.Join(opts, ", "), true
	default:
		return fmt.Sprint(x), true
	}
}

// answerOptions returns the distinct, sorted, non-blank options of an answer.
func answerOptions(v any) []string {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = []string{x}
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			if s, ok := NormalizeAnswer(item); ok {
				raw = append(raw, s)
			}
		}
	default:
		if s, ok := NormalizeAnswer(x); ok {
			raw = []string{s}
		}
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
