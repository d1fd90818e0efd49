package dataset

import (
	"context"

	"survey-insights-go/internal/config"
	"survey-insights-go/internal/source"
	"survey-insights-go/internal/types"
)

// NewLoader reads responses from DATASET_PATH when set, otherwise from the
// responses API.
func NewLoader(cfg config.Config) func(ctx context.Context) ([]types.Record, error) {
	if cfg.DatasetPath != "" {
		path := cfg.DatasetPath
		return func(context.Context) ([]types.Record, error) {
			return Load(path)
		}
	}
	client := source.NewClient(cfg.ResponsesAPIURL, cfg.ResponsesToken, cfg.HTTPTimeout, cfg.FetchMaxElapsed)
	return client.Fetch
}
