// Package survey names the questions of the travel-behaviour questionnaire
// that the dashboard groups responses by.
package survey

import (
	"fmt"
	"sort"

	"survey-insights-go/internal/aggregator"
	"survey-insights-go/internal/types"
)

var dimensions = map[string]aggregator.Dimension{}

var selections = map[string]aggregator.Selection{}

func init() {
	for _, d := range []aggregator.Dimension{
		aggregator.FieldDimension("accessMode", types.FormTrip, "accessMode"),
		aggregator.FieldDimension("distance", types.FormTrip, "distance"),
		aggregator.FieldDimension("purpose", types.FormTrip, "purpose"),
		aggregator.FieldDimension("travelMode", types.FormTrip, "travelMode"),
		aggregator.FieldDimension("aqiActions", types.FormHealth, "aqiActions"),
		aggregator.FieldDimension("gender", types.FormProfile, "gender"),
		aggregator.FieldDimension("age", types.FormProfile, "age"),
		aggregator.FieldDimension("income", types.FormProfile, "income"),
	} {
		dimensions[d.Name] = d
	}
	for _, s := range []aggregator.Selection{
		aggregator.SelectionField("symptoms", types.FormHealth, "symptoms"),
		aggregator.SelectionField("aqiActionsTaken", types.FormHealth, "aqiActions"),
	} {
		selections[s.Name] = s
	}
}

// PerceptionForm holds the 1-5 agreement questions.
const PerceptionForm = types.FormPerception

// Lookup returns the single-valued dimension with the given name.
func Lookup(name string) (aggregator.Dimension, bool) {
	d, ok := dimensions[name]
	return d, ok
}

// LookupSelection returns the multi-select question with the given name.
func LookupSelection(name string) (aggregator.Selection, bool) {
	s, ok := selections[name]
	return s, ok
}

// Resolve looks up every name, failing on the first unknown one.
func Resolve(names []string) ([]aggregator.Dimension, error) {
	out := make([]aggregator.Dimension, 0, len(names))
	for _, n := range names {
		d, ok := Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", aggregator.ErrUnknownDimension, n)
		}
		out = append(out, d)
	}
	return out, nil
}

// Names lists the known dimension names, sorted.
func Names() []string {
	out := make([]string, 0, len(dimensions))
	for n := range dimensions {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
