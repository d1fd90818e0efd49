package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"survey-insights-go/internal/logger"
	"survey-insights-go/internal/source"
	"survey-insights-go/internal/types"
)

// Load reads responses from a .json or .xlsx export.
func Load(path string) ([]types.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", filepath.Ext(path))
	}
}

// LoadJSON reads a JSON array of records, or {"data": [...]}.
func LoadJSON(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	records, dropped, err := source.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	source.LogDropped(logger.New().Component("dataset").WithField("path", path), records, dropped)
	return records, nil
}

// LoadXLSX reads the first sheet of a spreadsheet export. Header cells name
// answer paths such as "form6Data.gender" or "metadata.timeTaken.minutes";
// "_id" and "createdAt" map to the record itself. Cells holding ";" become
// multi-select answers and blank cells are left out, so a record whose
// columns for a form are all blank does not have that form.
func LoadXLSX(path string) ([]types.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := rows[0]
	var out []types.Record
	for i, r := range rows {
		if i == 0 {
			continue
		}
		record := types.Record{Data: types.ResponseData{}}
		for col, h := range header {
			if col >= len(r) {
				break
			}
			cell := strings.TrimSpace(r[col])
			if cell == "" {
				continue
			}
			setCell(&record, strings.TrimSpace(h), cell)
		}
		out = append(out, record)
	}
	return out, nil
}

func setCell(record *types.Record, header, cell string) {
	switch header {
	case "_id", "id":
		record.ID = cell
		return
	case "createdAt":
		record.CreatedAt = cell
		return
	}
	form, field, ok := strings.Cut(header, ".")
	if !ok || field == "" {
		return
	}
	var value any = cell
	if strings.Contains(cell, ";") {
		var opts []any
		for _, o := range strings.Split(cell, ";") {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		value = opts
	}

	f := record.Data[form]
	if f == nil {
		f = types.Form{}
		record.Data[form] = f
	}
	parent, child, nested := strings.Cut(field, ".")
	if !nested {
		f[field] = value
		return
	}
	m, _ := f[parent].(map[string]any)
	if m == nil {
		m = map[string]any{}
		f[parent] = m
	}
	m[child] = value
}

// SaveJSON writes records in the format LoadJSON reads.
func SaveJSON(path string, records []types.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
