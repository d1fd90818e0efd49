package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"survey-insights-go/internal/config"
	"survey-insights-go/internal/dashboard"
	"survey-insights-go/internal/dataset"
)

var reportFlags struct {
	outputFile string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build every dashboard table and print it as JSON",
	RunE:  runReport,
}

var tableCmd = &cobra.Command{
	Use:   "table <name>",
	Short: "Build a single dashboard table and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTable,
}

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Write every dashboard table to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	report, err := buildReport(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if reportFlags.outputFile != "" {
		f, err := os.Create(reportFlags.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writeJSON(w, report)
}

func runTable(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()
	board, err := config.LoadDashboard(cfg.DashboardPath)
	if err != nil {
		return err
	}
	var spec *config.TableSpec
	for i := range board.Tables {
		if board.Tables[i].Name == args[0] {
			spec = &board.Tables[i]
		}
	}
	if spec == nil {
		return fmt.Errorf("unknown table %q", args[0])
	}
	records, err := loadRecords(ctx)
	if err != nil {
		return err
	}
	table, err := dashboard.BuildTable(records, *spec)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), table)
}

func runExport(cmd *cobra.Command, args []string) error {
	report, err := buildReport(cmd.Context())
	if err != nil {
		return err
	}
	if err := dataset.ExportXLSX(args[0], report.Sheets()); err != nil {
		return fmt.Errorf("export %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tables from %d responses to %s\n", len(report.Tables), report.Records, args[0])
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
