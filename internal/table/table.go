// Package table lays normalized records out as a grid whose columns are
// the union of the records' fields, and renders it as text or xlsx.
package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// DefaultSheet is the sheet name used by WriteXLSX when none is given.
const DefaultSheet = "zefix"

// Table is a rectangular view of heterogeneous records. Cells a record
// does not have are empty.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromRows builds a table. Columns appear in the order they are first
// seen across rows.
func FromRows(rows []models.Row) *Table {
	t := &Table{}
	index := make(map[string]int)
	records := make([][]models.Field, len(rows))
	for i, r := range rows {
		records[i] = r.Fields()
		for _, f := range records[i] {
			if _, ok := index[f.Name]; !ok {
				index[f.Name] = len(t.Columns)
				t.Columns = append(t.Columns, f.Name)
			}
		}
	}
	t.Rows = make([][]string, len(records))
	for i, fields := range records {
		row := make([]string, len(t.Columns))
		for _, f := range fields {
			row[index[f.Name]] = f.Value
		}
		t.Rows[i] = row
	}
	return t
}

// Firms is FromRows for normalized firm records.
func Firms(firms []models.Firm) *Table {
	rows := make([]models.Row, len(firms))
	for i, f := range firms {
		rows[i] = f
	}
	return FromRows(rows)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the values of the named column, or nil if absent.
func (t *Table) Column(name string) []string {
	for c, col := range t.Columns {
		if col != name {
			continue
		}
		out := make([]string, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = r[c]
		}
		return out
	}
	return nil
}

// RenderOptions tune the text output.
type RenderOptions struct {
	MaxCellWidth int // runes; 0 = no limit
	Index        bool
}

// Render writes an aligned text table to w.
func (t *Table) Render(w io.Writer, opts RenderOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := t.Columns
	if opts.Index {
		header = append([]string{""}, header...)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i, r := range t.Rows {
		cells := make([]string, 0, len(r)+1)
		if opts.Index {
			cells = append(cells, fmt.Sprint(i))
		}
		for _, c := range r {
			cells = append(cells, clip(oneLine(c), opts.MaxCellWidth))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteXLSX saves the table as a single-sheet workbook with a styled header.
func (t *Table) WriteXLSX(path, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	for i, col := range t.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, name, name, columnWidth(col))
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func columnWidth(col string) float64 {
	switch col {
	case "purpose", "cantonalExcerptWeb", "issues", "fetchError":
		return 60
	case "name", "legalForm", "wasTakenOverBy":
		return 35
	}
	return 15
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string([]rune(s)[:limit-1]) + "…"
}
