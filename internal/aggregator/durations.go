package aggregator

import (
	"sort"
	"strconv"
	"strings"

	"survey-insights-go/internal/types"
)

// DurationSummary describes how long respondents took to finish the survey.
type DurationSummary struct {
	Count         int     `json:"count"`
	Missing       int     `json:"missing"`
	MeanSeconds   float64 `json:"mean_seconds"`
	MedianSeconds float64 `json:"median_seconds"`
	MinSeconds    float64 `json:"min_seconds"`
	MaxSeconds    float64 `json:"max_seconds"`
}

// SummarizeDurations reads metadata.timeTaken ({minutes, seconds}) from each
// record. Records without a usable duration are only counted as Missing.
func SummarizeDurations(records []types.Record) DurationSummary {
	var secs []float64
	var sum float64
	missing := 0
	for _, r := range records {
		d, ok := timeTaken(r)
		if !ok {
			missing++
			continue
		}
		secs = append(secs, d)
		sum += d
	}
	out := DurationSummary{Count: len(secs), Missing: missing}
	if len(secs) == 0 {
		return out
	}
	sort.Float64s(secs)
	out.MeanSeconds = sum / float64(len(secs))
	out.MinSeconds = secs[0]
	out.MaxSeconds = secs[len(secs)-1]
	mid := len(secs) / 2
	if len(secs)%2 == 0 {
		out.MedianSeconds = (secs[mid-1] + secs[mid]) / 2
	} else {
		out.MedianSeconds = secs[mid]
	}
	return out
}

func timeTaken(r types.Record) (float64, bool) {
	v, ok := r.Answer(types.FormMetadata, "timeTaken")
	if !ok {
		return 0, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	minutes, okM := number(m["minutes"])
	seconds, okS := number(m["seconds"])
	if !okM && !okS {
		return 0, false
	}
	total := minutes*60 + seconds
	if total < 0 {
		return 0, false
	}
	return total, true
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
