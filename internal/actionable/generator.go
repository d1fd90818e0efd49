package actionable

import (
	"fmt"

	"survey-insights-go/internal/aggregator"
)

// Highlight is the dominant sub-category of one category row.
type Highlight struct {
	Category string  `json:"category"`
	Dominant string  `json:"dominant"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
	Insight  string  `json:"insight"`
}

// Generate returns one highlight per category, in category order. Ties go
// to the sub-category that sorts first.
func Generate(axis string, f aggregator.Flattened) []Highlight {
	var out []Highlight
	for _, c := range f.Categories {
		total := f.RowTotal(c)
		if total == 0 {
			continue
		}
		best, bestCount := "", 0
		for _, sub := range f.SubCategories {
			if n := f.Get(c, sub); n > bestCount {
				best, bestCount = sub, n
			}
		}
		share := float64(bestCount) / float64(total)
		out = append(out, Highlight{
			Category: c,
			Dominant: best,
			Count:    bestCount,
			Share:    share,
			Insight:  fmt.Sprintf("%s: most respondents (%.0f%%) have %s %s", c, share*100, axis, best),
		})
	}
	return out
}
