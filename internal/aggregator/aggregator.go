// Package aggregator turns survey response records into nested frequency
// tables and chart-ready projections. Every function here is pure: inputs are
// only read, so results may be computed concurrently over a shared slice.
package aggregator

import (
	"errors"
	"fmt"
	"sort"

	"survey-insights-go/internal/types"
)

var (
	ErrNoDimensions     = errors.New("aggregator: at least one dimension is required")
	ErrInvalidDimension = errors.New("aggregator: dimension has no extractor")
	ErrIndexOutOfRange  = errors.New("aggregator: aggregator index out of range")
	ErrUnknownDimension = errors.New("aggregator: unknown dimension")
	ErrNilTable         = errors.New("aggregator: nil table")
)

// Stats reports how the fail-soft rules shaped a table.
type Stats struct {
	Records int `json:"records"`
	Counted int `json:"counted"`
	// Skipped records lacked a form one of the dimensions requires.
	Skipped int `json:"skipped"`
	// RecordsWithSentinel were counted with at least one "unknown" value.
	RecordsWithSentinel   int `json:"records_with_sentinel"`
	SentinelSubstitutions int `json:"sentinel_substitutions"`
}

// BuildNestedCounts counts records by the values of dims, in order.
//
// A record missing a form required by any dimension is skipped entirely. A
// record that has the form but not the answer is counted under Unknown.
// Malformed records never fail the batch.
func BuildNestedCounts(records []types.Record, dims []Dimension) (*NestedCounts, error) {
	if err := validate(dims); err != nil {
		return nil, err
	}
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = d.Name
	}
	t := newNestedCounts(names)
	t.Stats.Records = len(records)

	path := make([]string, len(dims))
	for _, r := range records {
		if !hasRequired(r, dims) {
			t.Stats.Skipped++
			continue
		}
		substituted := 0
		for i, d := range dims {
			v, ok := d.Extract(r)
			if !ok {
				v = Unknown
				substituted++
			}
			path[i] = v
		}
		incrementPath(t.Root, path)
		t.Stats.Counted++
		if substituted > 0 {
			t.Stats.RecordsWithSentinel++
			t.Stats.SentinelSubstitutions += substituted
		}
	}
	return t, nil
}

func validate(dims []Dimension) error {
	if len(dims) == 0 {
		return ErrNoDimensions
	}
	for _, d := range dims {
		if d.Extract == nil {
			return fmt.Errorf("%w: %q", ErrInvalidDimension, d.Name)
		}
	}
	return nil
}

func hasRequired(r types.Record, dims []Dimension) bool {
	for _, d := range dims {
		if d.Requires == "" {
			continue
		}
		if _, ok := r.Form(d.Requires); !ok {
			return false
		}
	}
	return true
}

// Flattened is a category x sub-category count table. Zero cells are left
// out of Table and read as 0.
type Flattened struct {
	Categories    []string                  `json:"categories"`
	SubCategories []string                  `json:"sub_categories"`
	Table         map[string]map[string]int `json:"table"`
}

// Flatten keeps the top-level dimension as the category axis and the
// dimension at aggregatorIndex as the sub-category axis, summing away every
// other level. Both axes are sorted ascending.
func Flatten(t *NestedCounts, aggregatorIndex int) (Flattened, error) {
	if t == nil || t.Root == nil {
		return Flattened{}, ErrNilTable
	}
	if aggregatorIndex < 0 || aggregatorIndex >= t.Depth() {
		return Flattened{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, aggregatorIndex, t.Depth())
	}

	table := map[string]map[string]int{}
	subs := map[string]bool{}
	for cat, child := range t.Root.Children {
		row := map[string]int{}
		if aggregatorIndex == 0 {
			row[cat] = child.Count
		} else {
			sumAt(child, aggregatorIndex, row)
		}
		for k, v := range row {
			if v == 0 {
				delete(row, k)
				continue
			}
			subs[k] = true
		}
		if len(row) > 0 {
			table[cat] = row
		}
	}
	return Flattened{
		Categories:    sortedKeys(table),
		SubCategories: sortedSet(subs),
		Table:         table,
	}, nil
}

// FlattenBy is Flatten with the aggregator dimension given by name.
func FlattenBy(t *NestedCounts, aggregator string) (Flattened, error) {
	if t == nil || t.Root == nil {
		return Flattened{}, ErrNilTable
	}
	for i, name := range t.Dimensions {
		if name == aggregator {
			return Flatten(t, i)
		}
	}
	return Flattened{}, fmt.Errorf("%w: %q", ErrUnknownDimension, aggregator)
}

// Get returns the count for a cell, 0 when absent.
func (f Flattened) Get(category, sub string) int {
	return f.Table[category][sub]
}

// RowTotal sums a category row.
func (f Flattened) RowTotal(category string) int {
	total := 0
	for _, v := range f.Table[category] {
		total += v
	}
	return total
}

// Series returns the counts of one sub-category aligned with Categories,
// the shape a stacked bar chart consumes.
func (f Flattened) Series(sub string) []int {
	out := make([]int, len(f.Categories))
	for i, c := range f.Categories {
		out[i] = f.Table[c][sub]
	}
	return out
}

// Proportions holds each cell's share of its category row.
type Proportions struct {
	Categories    []string                      `json:"categories"`
	SubCategories []string                      `json:"sub_categories"`
	Table         map[string]map[string]float64 `json:"table"`
}

// ProjectToProportions divides every cell by its row total. Rows summing to
// zero are left out.
func ProjectToProportions(f Flattened) Proportions {
	table := map[string]map[string]float64{}
	subs := map[string]bool{}
	for cat, row := range f.Table {
		total := 0
		for _, v := range row {
			total += v
		}
		if total <= 0 {
			continue
		}
		shares := make(map[string]float64, len(row))
		for k, v := range row {
			if v == 0 {
				continue
			}
			shares[k] = float64(v) / float64(total)
			subs[k] = true
		}
		table[cat] = shares
	}
	return Proportions{
		Categories:    sortedKeys(table),
		SubCategories: sortedSet(subs),
		Table:         table,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]bool) []string {
	return sortedKeys(m)
}
