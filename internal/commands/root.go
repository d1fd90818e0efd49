package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"survey-insights-go/internal/config"
	"survey-insights-go/internal/dashboard"
	"survey-insights-go/internal/dataset"
	"survey-insights-go/internal/types"
)

var (
	datasetPath   string
	dashboardPath string
	timeout       time.Duration
	cfg           config.Config
)

var rootCmd = &cobra.Command{
	Use:   "surveyctl",
	Short: "surveyctl: travel survey response tables",
	Long: `surveyctl aggregates travel survey responses into frequency tables,
either from an exported dataset (.json or .xlsx) or from the responses API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if datasetPath != "" {
			cfg.DatasetPath = datasetPath
		}
		if dashboardPath != "" {
			cfg.DashboardPath = dashboardPath
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "Response export to read instead of the API (.json or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&dashboardPath, "config", "", "Dashboard layout file (default: dashboard.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(initCmd)
}

// buildReport loads the responses and the layout and builds every table.
func buildReport(ctx context.Context) (dashboard.Report, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	board, err := config.LoadDashboard(cfg.DashboardPath)
	if err != nil {
		return dashboard.Report{}, err
	}
	records, err := loadRecords(ctx)
	if err != nil {
		return dashboard.Report{}, err
	}
	return dashboard.Build(ctx, records, board.Tables)
}

// withTimeout bounds a command by --timeout; zero disables the bound.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func loadRecords(ctx context.Context) ([]types.Record, error) {
	return dataset.NewLoader(cfg)(ctx)
}
