// Package dashboard builds the full set of response tables the survey
// dashboard shows.
package dashboard

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"survey-insights-go/internal/actionable"
	"survey-insights-go/internal/aggregator"
	"survey-insights-go/internal/config"
	"survey-insights-go/internal/dataset"
	"survey-insights-go/internal/logger"
	"survey-insights-go/internal/survey"
	"survey-insights-go/internal/types"
)

type Table struct {
	Name       string                   `json:"name"`
	Title      string                   `json:"title,omitempty"`
	Kind       string                   `json:"kind"`
	Dimensions []string                 `json:"dimensions"`
	Aggregator string                   `json:"aggregator"`
	Nested     *aggregator.NestedCounts `json:"nested"`
	Flat       aggregator.Flattened     `json:"flattened"`
	Shares     *aggregator.Proportions  `json:"proportions,omitempty"`
	Highlights []actionable.Highlight   `json:"highlights,omitempty"`
}

type Report struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Records     int                        `json:"records"`
	Tables      []Table                    `json:"tables"`
	Durations   aggregator.DurationSummary `json:"durations"`
	DurationMs  int64                      `json:"duration_ms"`
}

// Build computes every table concurrently over the same read-only records.
// Tables keep the order of specs. The first failing table aborts the build.
func Build(ctx context.Context, records []types.Record, specs []config.TableSpec) (Report, error) {
	log := logger.New().Component("dashboard")
	start := time.Now()

	tables := make([]Table, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := BuildTable(records, spec)
			if err != nil {
				return fmt.Errorf("table %q: %w", spec.Name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("dashboard build failed")
		return Report{}, err
	}

	for _, t := range tables {
		if t.Nested.Stats.Skipped > 0 || t.Nested.Stats.RecordsWithSentinel > 0 {
			log.WithField("table", t.Name).WithFields(logger.StatsFields(t.Nested.Stats)).Debug("fail-soft adjustments")
		}
	}

	r := Report{
		GeneratedAt: start.UTC(),
		Records:     len(records),
		Tables:      tables,
		Durations:   aggregator.SummarizeDurations(records),
		DurationMs:  time.Since(start).Milliseconds(),
	}
	log.WithField("records", r.Records).WithField("tables", len(tables)).WithField("duration_ms", r.DurationMs).Info("dashboard built")
	return r, nil
}

// BuildTable computes one table from its spec.
func BuildTable(records []types.Record, spec config.TableSpec) (Table, error) {
	t := Table{Name: spec.Name, Title: spec.Title, Kind: spec.Kind}
	if t.Kind == "" {
		t.Kind = config.KindNested
	}

	var (
		nested *aggregator.NestedCounts
		err    error
	)
	switch t.Kind {
	case config.KindNested:
		dims, rerr := survey.Resolve(spec.Dimensions)
		if rerr != nil {
			return Table{}, rerr
		}
		if nested, err = aggregator.BuildNestedCounts(records, dims); err != nil {
			return Table{}, err
		}
		t.Aggregator = spec.Aggregator
		if t.Aggregator == "" {
			t.Aggregator = spec.Dimensions[len(spec.Dimensions)-1]
		}
	case config.KindSelections:
		if len(spec.Dimensions) != 2 {
			return Table{}, fmt.Errorf("selections need [question, grouping], got %v", spec.Dimensions)
		}
		sel, ok := survey.LookupSelection(spec.Dimensions[0])
		if !ok {
			return Table{}, fmt.Errorf("%w: %q", aggregator.ErrUnknownDimension, spec.Dimensions[0])
		}
		by, rerr := survey.Resolve(spec.Dimensions[1:])
		if rerr != nil {
			return Table{}, rerr
		}
		nested, err = aggregator.CountSelections(records, sel, by[0])
		t.Aggregator = spec.Dimensions[1]
	case config.KindLikert:
		nested, err = aggregator.LikertMatrix(records, survey.PerceptionForm, spec.Questions)
		t.Aggregator = "score"
	default:
		return Table{}, fmt.Errorf("%w %q", config.ErrUnknownTableKind, t.Kind)
	}
	if err != nil {
		return Table{}, err
	}

	flat, err := aggregator.FlattenBy(nested, t.Aggregator)
	if err != nil {
		return Table{}, err
	}
	t.Dimensions = nested.Dimensions
	t.Nested = nested
	t.Flat = flat
	if spec.Proportions {
		p := aggregator.ProjectToProportions(flat)
		t.Shares = &p
	}
	t.Highlights = actionable.Generate(t.Aggregator, flat)
	return t, nil
}

// Table returns the table with the given name.
func (r Report) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Sheets converts the report for spreadsheet export.
func (r Report) Sheets() []dataset.Sheet {
	out := make([]dataset.Sheet, 0, len(r.Tables))
	for _, t := range r.Tables {
		out = append(out, dataset.Sheet{Name: t.Name, Title: t.Title, Counts: t.Flat, Shares: t.Shares})
	}
	return out
}
