package aggregator

import (
	"fmt"
	"strconv"
	"strings"

	"survey-insights-go/internal/types"
)

// CountSelections tallies a multi-select question against a grouping
// dimension. The result is keyed [option, group]; a record contributes once
// per option it selected, or once under None if it selected nothing.
// Stats.Counted is the number of records, not the number of selections.
func CountSelections(records []types.Record, sel Selection, by Dimension) (*NestedCounts, error) {
	if sel.Extract == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, sel.Name)
	}
	if err := validate([]Dimension{by}); err != nil {
		return nil, err
	}
	t := newNestedCounts([]string{sel.Name, by.Name})
	t.Stats.Records = len(records)

	for _, r := range records {
		if sel.Requires != "" {
			if _, ok := r.Form(sel.Requires); !ok {
				t.Stats.Skipped++
				continue
			}
		}
		if !hasRequired(r, []Dimension{by}) {
			t.Stats.Skipped++
			continue
		}
		group, ok := by.Extract(r)
		if !ok {
			group = Unknown
			t.Stats.RecordsWithSentinel++
			t.Stats.SentinelSubstitutions++
		}
		opts := sel.Extract(r)
		if len(opts) == 0 {
			opts = []string{None}
		}
		for _, o := range opts {
			incrementPath(t.Root, []string{o, group})
		}
		t.Stats.Counted++
	}
	return t, nil
}

// LikertMatrix tallies 1-5 agreement answers of several questions from the
// same form. The result is keyed [question, score]. Answers outside 1..5
// and unanswered questions land under Unknown.
func LikertMatrix(records []types.Record, form string, questions []string) (*NestedCounts, error) {
	if len(questions) == 0 {
		return nil, ErrNoDimensions
	}
	t := newNestedCounts([]string{"question", "score"})
	t.Stats.Records = len(records)

	for _, r := range records {
		f, ok := r.Form(form)
		if !ok {
			t.Stats.Skipped++
			continue
		}
		substituted := 0
		for _, q := range questions {
			score, ok := likertScore(f[q])
			if !ok {
				score = Unknown
				substituted++
			}
			incrementPath(t.Root, []string{q, score})
		}
		t.Stats.Counted++
		if substituted > 0 {
			t.Stats.RecordsWithSentinel++
			t.Stats.SentinelSubstitutions += substituted
		}
	}
	return t, nil
}

func likertScore(v any) (string, bool) {
	s, ok := NormalizeAnswer(v)
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 5 {
		return "", false
	}
	return strconv.Itoa(n), true
}
