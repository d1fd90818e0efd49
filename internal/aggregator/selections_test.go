package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-insights-go/internal/types"
)

func TestCountSelections(t *testing.T) {
	symptoms := SelectionField("symptoms", types.FormHealth, "symptoms")
	records := []types.Record{
		rec(map[string]types.Form{
			types.FormHealth:  {"symptoms": []any{"cough", "headache", "cough"}},
			types.FormProfile: {"gender": "male"},
		}),
		rec(map[string]types.Form{
			types.FormHealth:  {"symptoms": []any{}},
			types.FormProfile: {"gender": "female"},
		}),
		rec(map[string]types.Form{
			types.FormHealth:  {"symptoms": "cough"},
			types.FormProfile: {},
		}),
		rec(map[string]types.Form{
			types.FormProfile: {"gender": "female"},
		}),
	}

	table, err := CountSelections(records, symptoms, gender)
	require.NoError(t, err)

	assert.Equal(t, []string{"symptoms", "gender"}, table.Dimensions)
	assert.Equal(t, 1, table.Count("cough", "male"), "duplicate options count once")
	assert.Equal(t, 1, table.Count("cough", Unknown))
	assert.Equal(t, 1, table.Count("headache", "male"))
	assert.Equal(t, 1, table.Count(None, "female"))
	assert.Equal(t, 3, table.Stats.Counted)
	assert.Equal(t, 1, table.Stats.Skipped)
	assert.Equal(t, 1, table.Stats.RecordsWithSentinel)
	assert.Equal(t, 4, table.Total(), "one leaf per selected option")
	assert.Equal(t, 2, table.Count("cough"))

	flat, err := Flatten(table, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cough", "headache", "none"}, flat.Categories)
	assert.Equal(t, []string{"female", "male", "unknown"}, flat.SubCategories)
}

func TestCountSelections_InvalidDimensions(t *testing.T) {
	_, err := CountSelections(nil, Selection{Name: "x"}, gender)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = CountSelections(nil, SelectionField("s", types.FormHealth, "s"), Dimension{Name: "g"})
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestLikertMatrix(t *testing.T) {
	records := []types.Record{
		rec(map[string]types.Form{types.FormPerception: {"safety": "4", "comfort": 5.0}}),
		rec(map[string]types.Form{types.FormPerception: {"safety": "9", "comfort": " 5 "}}),
		rec(map[string]types.Form{types.FormPerception: {"safety": "4"}}),
		rec(map[string]types.Form{types.FormTrip: {"travelMode": "bus"}}),
	}

	table, err := LikertMatrix(records, types.FormPerception, []string{"safety", "comfort"})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Count("safety", "4"))
	assert.Equal(t, 1, table.Count("safety", Unknown))
	assert.Equal(t, 2, table.Count("comfort", "5"))
	assert.Equal(t, 1, table.Count("comfort", Unknown))
	assert.Equal(t, 1, table.Stats.Skipped)
	assert.Equal(t, 2, table.Stats.RecordsWithSentinel)
	assert.Equal(t, 3, table.Stats.Counted)
	assert.Equal(t, 6, table.Total(), "one leaf per question")

	_, err = LikertMatrix(records, types.FormPerception, nil)
	assert.ErrorIs(t, err, ErrNoDimensions)
}

func TestBucketed(t *testing.T) {
	ageBand := Bucketed(FieldDimension("age", types.FormProfile, "age"), func(v string) string {
		if v == "prefer not to say" {
			return ""
		}
		return "band " + v
	})
	records := []types.Record{profile("male", "20-29"), profile("male", "prefer not to say")}

	table, err := BuildNestedCounts(records, []Dimension{ageBand})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Count("band 20-29"))
	assert.Equal(t, 1, table.Count(Unknown))
}

func TestSummarizeDurations(t *testing.T) {
	withTime := func(v any) types.Record {
		return rec(map[string]types.Form{types.FormMetadata: {"timeTaken": v}})
	}
	records := []types.Record{
		withTime(map[string]any{"minutes": 2.0, "seconds": 30.0}),
		withTime(map[string]any{"minutes": "1", "seconds": "0"}),
		withTime(map[string]any{"seconds": 45.0}),
		withTime(map[string]any{"minutes": 4.0, "seconds": 0.0}),
		withTime("soon"),
		profile("male", "20-29"),
	}

	s := SummarizeDurations(records)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.Missing)
	assert.InDelta(t, 45.0, s.MinSeconds, 1e-9)
	assert.InDelta(t, 240.0, s.MaxSeconds, 1e-9)
	assert.InDelta(t, 105.0, s.MedianSeconds, 1e-9)
	assert.InDelta(t, 123.75, s.MeanSeconds, 1e-9)

	assert.Equal(t, DurationSummary{}, SummarizeDurations(nil))
}
