package dashboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-insights-go/internal/aggregator"
	"survey-insights-go/internal/config"
	"survey-insights-go/internal/types"
)

func responses() []types.Record {
	return []types.Record{
		{ID: "1", Data: types.ResponseData{
			types.FormTrip:       {"travelMode": "bus", "purpose": "work"},
			types.FormHealth:     {"symptoms": []any{"cough"}},
			types.FormPerception: {"safety": "4"},
			types.FormProfile:    {"gender": "male", "age": "20-29", "income": "low"},
			types.FormMetadata:   {"timeTaken": map[string]any{"minutes": 3.0, "seconds": 0.0}},
		}},
		{ID: "2", Data: types.ResponseData{
			types.FormTrip:       {"travelMode": "bus", "purpose": "school"},
			types.FormHealth:     {"symptoms": []any{"cough", "headache"}},
			types.FormPerception: {"safety": "2"},
			types.FormProfile:    {"gender": "female", "age": "20-29"},
		}},
		{ID: "3", Data: types.ResponseData{
			types.FormTrip:    {"travelMode": "metro"},
			types.FormProfile: {"gender": "male", "age": "30-44", "income": "high"},
		}},
		{ID: "4", Data: types.ResponseData{
			types.FormProfile: {"gender": "female", "age": "45-59"},
		}},
	}
}

func TestBuild_DefaultDashboard(t *testing.T) {
	specs := config.DefaultDashboard().Tables
	r, err := Build(context.Background(), responses(), specs)
	require.NoError(t, err)

	require.Len(t, r.Tables, len(specs))
	for i, spec := range specs {
		assert.Equal(t, spec.Name, r.Tables[i].Name)
	}
	assert.Equal(t, 4, r.Records)
	assert.Equal(t, 1, r.Durations.Count)

	byAge, ok := r.Table("travelMode_by_age")
	require.True(t, ok)
	assert.Equal(t, []string{"bus", "metro"}, byAge.Flat.Categories)
	assert.Equal(t, 2, byAge.Flat.Get("bus", "20-29"))
	assert.Equal(t, 1, byAge.Flat.Get("metro", "30-44"))
	assert.Equal(t, 1, byAge.Nested.Stats.Skipped)
	assert.Equal(t, 1, byAge.Nested.Stats.RecordsWithSentinel, "record 2 has no income")
	require.NotNil(t, byAge.Shares)
	assert.InDelta(t, 1.0, byAge.Shares.Table["bus"]["20-29"], 1e-12)

	symptoms, ok := r.Table("symptoms_by_gender")
	require.True(t, ok)
	assert.Equal(t, 1, symptoms.Flat.Get("cough", "female"))
	assert.Equal(t, 1, symptoms.Flat.Get("cough", "male"))
	assert.Equal(t, 1, symptoms.Flat.Get("headache", "female"))

	_, ok = r.Table("nope")
	assert.False(t, ok)
	assert.Len(t, r.Sheets(), len(specs))
}

func TestBuildTable_Likert(t *testing.T) {
	tbl, err := BuildTable(responses(), config.TableSpec{Name: "perception", Kind: config.KindLikert, Questions: []string{"safety"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"question", "score"}, tbl.Dimensions)
	assert.Equal(t, []string{"2", "4"}, tbl.Flat.SubCategories)
	assert.Nil(t, tbl.Shares)
}

func TestBuildTable_DefaultsToLastDimension(t *testing.T) {
	tbl, err := BuildTable(responses(), config.TableSpec{Name: "g", Dimensions: []string{"gender", "age"}})
	require.NoError(t, err)
	assert.Equal(t, config.KindNested, tbl.Kind)
	assert.Equal(t, "age", tbl.Aggregator)
	assert.Equal(t, []string{"20-29", "30-44", "45-59"}, tbl.Flat.SubCategories)
	require.Len(t, tbl.Highlights, 2)
	assert.Equal(t, "female", tbl.Highlights[0].Category)
}

func TestBuildTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec config.TableSpec
		want error
	}{
		{"unknown dimension", config.TableSpec{Name: "x", Dimensions: []string{"shoeSize"}}, aggregator.ErrUnknownDimension},
		{"no dimensions", config.TableSpec{Name: "x"}, aggregator.ErrNoDimensions},
		{"bad aggregator", config.TableSpec{Name: "x", Dimensions: []string{"gender"}, Aggregator: "age"}, aggregator.ErrUnknownDimension},
		{"unknown selection", config.TableSpec{Name: "x", Kind: config.KindSelections, Dimensions: []string{"gender", "age"}}, aggregator.ErrUnknownDimension},
		{"unknown kind", config.TableSpec{Name: "x", Kind: "pie"}, config.ErrUnknownTableKind},
		{"likert without questions", config.TableSpec{Name: "x", Kind: config.KindLikert}, aggregator.ErrNoDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTable(responses(), tt.spec)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_PropagatesTableError(t *testing.T) {
	specs := []config.TableSpec{
		{Name: "ok", Dimensions: []string{"gender"}},
		{Name: "broken", Dimensions: []string{"shoeSize"}},
	}
	_, err := Build(context.Background(), responses(), specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "broken"`)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, responses(), config.DefaultDashboard().Tables)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport_JSON(t *testing.T) {
	r, err := Build(context.Background(), responses(), []config.TableSpec{{Name: "g", Dimensions: []string{"gender", "age"}, Aggregator: "age"}})
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var out struct {
		Tables []struct {
			Nested struct {
				Counts map[string]map[string]int `json:"counts"`
			} `json:"nested"`
			Flattened struct {
				Categories []string `json:"categories"`
			} `json:"flattened"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Tables, 1)
	assert.Equal(t, 1, out.Tables[0].Nested.Counts["female"]["45-59"])
	assert.Equal(t, []string{"female", "male"}, out.Tables[0].Flattened.Categories)
}
