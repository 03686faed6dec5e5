// Package export writes rendered list views as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/SundayYogurt/directory_service/internal/staging"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX writes one header row of labels followed by one row per model.
// labels and names must line up; names select the DisplayField to emit.
func XLSX(sheet string, labels, names []string, rows []staging.DisplayModel) ([]byte, error) {
	if len(labels) != len(names) {
		return nil, fmt.Errorf("export: %d labels for %d columns", len(labels), len(names))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("export: rename sheet: %w", err)
		}
	}

	header := make([]any, 0, len(labels)+2)
	header = append(header, "ID", "Review Status")
	for _, l := range labels {
		header = append(header, l)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}

	for i, m := range rows {
		row := make([]any, 0, len(names)+2)
		row = append(row, m.ID, string(m.AdminStatus))
		for _, name := range names {
			v, _ := m.Value(name)
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write: %w", err)
	}
	return buf.Bytes(), nil
}
