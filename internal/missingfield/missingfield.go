// Package missingfield implements MissingFieldDetector (C4): finding
// fields absent or empty across rows, per panel and per row index.
package missingfield

import (
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// Detect computes a MissingFieldReport for every enabled panel.
func Detect(enabledPanels []infobar.Panel, current infobar.CurrentData) []infobar.MissingFieldReport {
	reports := make([]infobar.MissingFieldReport, 0, len(enabledPanels))
	for _, p := range enabledPanels {
		reports = append(reports, detectPanel(p, current[p.ID]))
	}
	return reports
}

func detectPanel(p infobar.Panel, table infobar.PanelTable) infobar.MissingFieldReport {
	colCount := p.ColumnCount()
	totalRows := table.RowCount()

	fields := make([]infobar.FieldMissingInfo, 0, colCount)
	for col := 1; col <= colCount; col++ {
		si := p.SubItems[col-1]
		info := infobar.FieldMissingInfo{
			Key:         si.Key,
			DisplayName: si.DisplayName,
			TotalRows:   totalRows,
		}

		if totalRows == 0 {
			// Zero rows: every enabled sub-item is missing, no row list.
			fields = append(fields, info)
			continue
		}

		var emptyRows int
		var missingRows []int
		for i, row := range table.Rows {
			rowNo := i + 1
			blank := row.IsEmptyAt(col)
			if blank {
				emptyRows++
			}
			if blank && row.HasAnyData(colCount) {
				missingRows = append(missingRows, rowNo)
			}
		}

		info.EmptyRows = emptyRows
		info.EmptyPercentage = float64(emptyRows) / float64(totalRows) * 100
		info.MissingRows = missingRows

		if len(missingRows) > 0 || emptyRows == totalRows || info.EmptyPercentage > 50 {
			fields = append(fields, info)
		}
	}

	return infobar.MissingFieldReport{PanelID: p.ID, Fields: fields}
}
