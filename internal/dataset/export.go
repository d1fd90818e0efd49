package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"survey-insights-go/internal/aggregator"
)

// Sheet is one flattened table to write out. Shares, when set, is written
// below the counts.
type Sheet struct {
	Name   string
	Title  string
	Counts aggregator.Flattened
	Shares *aggregator.Proportions
}

const maxSheetName = 31

// Workbook lays every sheet out as a grid: categories down, sub-categories
// across, with a row total column.
func Workbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	used := map[string]bool{}
	for i, s := range sheets {
		name := sheetName(s.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, s); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", name, err)
		}
	}
	return f, nil
}

// ExportXLSX writes sheets to path.
func ExportXLSX(path string, sheets []Sheet) error {
	f, err := Workbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// WriteXLSX streams the workbook, e.g. into an HTTP response.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f, err := Workbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, name string, s Sheet) error {
	row := 1
	title := s.Title
	if title == "" {
		title = s.Name
	}
	if err := setRow(f, name, row, []any{title}); err != nil {
		return err
	}
	row++

	if err := writeGrid(f, name, &row, s.Counts.Categories, s.Counts.SubCategories, func(c, sub string) any {
		return s.Counts.Get(c, sub)
	}, func(c string) any { return s.Counts.RowTotal(c) }); err != nil {
		return err
	}
	if s.Shares == nil {
		return nil
	}
	if err := setRow(f, name, row, []any{"share of row"}); err != nil {
		return err
	}
	row++
	return writeGrid(f, name, &row, s.Shares.Categories, s.Shares.SubCategories, func(c, sub string) any {
		return s.Shares.Table[c][sub]
	}, nil)
}

func writeGrid(f *excelize.File, sheet string, row *int, cats, subs []string, cell func(c, sub string) any, total func(c string) any) error {
	head := []any{""}
	for _, sub := range subs {
		head = append(head, sub)
	}
	if total != nil {
		head = append(head, "total")
	}
	if err := setRow(f, sheet, *row, head); err != nil {
		return err
	}
	*row++
	for _, c := range cats {
		line := []any{c}
		for _, sub := range subs {
			line = append(line, cell(c, sub))
		}
		if total != nil {
			line = append(line, total(c))
		}
		if err := setRow(f, sheet, *row, line); err != nil {
			return err
		}
		*row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// sheetName makes s a unique, valid worksheet name.
func sheetName(s string, i int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(s, "'"))
	if name == "" {
		name = fmt.Sprintf("table%d", i+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}
