// Package strategy implements StrategyAnalyzer (C3): a pure function
// computing the per-turn update strategy from panel coverage.
package strategy

import (
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// Analyze computes an UpdateStrategy for the given enabled panels and
// current per-chat data snapshot. Pure function of its two inputs.
func Analyze(enabledPanels []infobar.Panel, current infobar.CurrentData) infobar.UpdateStrategy {
	var totalFields, existingFields int
	panelsWithNoData := 0

	for _, p := range enabledPanels {
		table := current[p.ID]
		rowCount := table.RowCount()
		subItemCount := p.ColumnCount()

		// A panel with no rows still has one row's worth of configured
		// cells, so empty panels lower coverage.
		configuredRows := rowCount
		if configuredRows < 1 {
			configuredRows = 1
		}
		configuredCellCount := subItemCount * configuredRows
		actualCellCount := countNonEmptyCells(table, subItemCount)

		panelTotal := configuredCellCount
		if actualCellCount > panelTotal {
			panelTotal = actualCellCount
		}
		totalFields += panelTotal
		existingFields += actualCellCount

		if rowCount == 0 {
			panelsWithNoData++
		}
	}

	coverage := 0
	if totalFields > 0 {
		coverage = int(roundHalfUp(float64(existingFields) / float64(totalFields) * 100))
		if coverage > 100 {
			coverage = 100
		}
	}

	var strategyType infobar.StrategyType
	var reason string

	switch {
	case coverage < 20:
		strategyType = infobar.StrategyFull
		reason = "coverage below 20%"
	case coverage > 60:
		strategyType = infobar.StrategyIncremental
		reason = "coverage above 60%"
	default:
		if len(enabledPanels) > 0 && panelsWithNoData*2 > len(enabledPanels) {
			strategyType = infobar.StrategyFull
			reason = "more than half of enabled panels have no data"
		} else {
			strategyType = infobar.StrategyIncremental
			reason = "partial coverage, emit changes only"
		}
	}

	return infobar.UpdateStrategy{
		Type:           strategyType,
		Coverage:       coverage,
		TotalFields:    totalFields,
		ExistingFields: existingFields,
		Reason:         reason,
	}
}

func countNonEmptyCells(table infobar.PanelTable, subItemCount int) int {
	count := 0
	for _, row := range table.Rows {
		for col := 1; col <= subItemCount; col++ {
			if !row.IsEmptyAt(col) {
				count++
			}
		}
	}
	return count
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int64(v + 0.5))
}
