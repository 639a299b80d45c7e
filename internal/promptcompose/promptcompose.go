// Package promptcompose implements the PromptComposer (C5): assembles
// the deterministic prompt injected into the host chat pipeline each
// turn from templates, the current data snapshot, the update strategy,
// missing-field instructions, and the rendered rules catalog.
package promptcompose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// OutputMode is interpolated into the template at {{OUTPUT_MODE}}.
type OutputMode string

const (
	OutputModeMain   OutputMode = "main-API"
	OutputModeCustom OutputMode = "custom-API"
)

// fiveSteps are the fixed analysis-step names the think block must use
// verbatim (§4.5); the model must not rename them.
var fiveSteps = []string{
	"update-strategy",
	"plot analysis",
	"data-change identification",
	"update-strategy decision",
	"completeness check",
	"quality verification",
}

// Options carries the per-turn, per-config knobs the composer needs
// beyond the enabled panels / current data / strategy / missing report.
type Options struct {
	EnableArmorBreaking bool
	ArmorBreakingPrompt string
	MemoryBlock         string
	RulesSection        string
	OutputMode          OutputMode
}

// Compose assembles the full prompt in the fixed section order from
// §4.5. Any section with no content is omitted entirely rather than
// left as an empty header.
func Compose(enabledPanels []infobar.Panel, current infobar.CurrentData, strategy infobar.UpdateStrategy, missing []infobar.MissingFieldReport, opts Options) string {
	var b strings.Builder

	if opts.EnableArmorBreaking && strings.TrimSpace(opts.ArmorBreakingPrompt) != "" {
		b.WriteString("=== BEGIN OPERATOR DIRECTIVE ===\n")
		b.WriteString(strings.TrimSpace(opts.ArmorBreakingPrompt))
		b.WriteString("\n=== END OPERATOR DIRECTIVE ===\n\n")
	}

	if strings.TrimSpace(opts.MemoryBlock) != "" {
		b.WriteString("=== MEMORY ENHANCEMENT ===\n")
		b.WriteString(strings.TrimSpace(opts.MemoryBlock))
		b.WriteString("\n\n")
	}

	mode := opts.OutputMode
	if mode == "" {
		mode = OutputModeMain
	}

	if strategy.Type == infobar.StrategyIncremental {
		b.WriteString(incrementalTemplate(enabledPanels, strategy, missing, mode))
	} else {
		b.WriteString(fullTemplate(enabledPanels, strategy, mode))
	}
	b.WriteString("\n\n")

	if strings.TrimSpace(opts.RulesSection) != "" {
		b.WriteString("=== RULES CATALOG ===\n")
		b.WriteString(strings.TrimSpace(opts.RulesSection))
		b.WriteString("\n\n")
	}

	b.WriteString(currentDataStatus(enabledPanels, current))
	b.WriteString("\n\n")

	b.WriteString(thinkOutputContract())

	return b.String()
}

func reasonSentence(strategy infobar.UpdateStrategy) string {
	if strategy.Type == infobar.StrategyFull {
		return fmt.Sprintf("coverage %d%%, emit complete data (%s).", strategy.Coverage, strategy.Reason)
	}
	return fmt.Sprintf("coverage %d%%, emit changes only (%s).", strategy.Coverage, strategy.Reason)
}

func fullTemplate(enabledPanels []infobar.Panel, strategy infobar.UpdateStrategy, mode OutputMode) string {
	var b strings.Builder
	b.WriteString("ROLE: info-bar data operator.\n")
	b.WriteString("TASK: emit the complete current state of every enabled panel as operation commands.\n")
	b.WriteString("FORMAT: the ONLY accepted syntax is one operation command per line:\n")
	b.WriteString(`  add <panel>(<row> {"<col>","<value>", "<col>","<value>", ...})` + "\n")
	b.WriteString("No JSON objects, no key=value pairs, no markdown lists, no XML-nested tags are accepted. Any other syntax is rejected in full.\n")
	b.WriteString("SCHEMA:\n")
	for _, p := range enabledPanels {
		b.WriteString("  " + referenceLine("add", p) + "\n")
	}
	b.WriteString("OUTPUT MODE: " + string(mode) + ".\n")
	b.WriteString(reasonSentence(strategy) + "\n")
	b.WriteString("CHECKLIST: emit a row for every one of the following panels: ")
	ids := make([]string, len(enabledPanels))
	for i, p := range enabledPanels {
		ids[i] = p.ID
	}
	b.WriteString(strings.Join(ids, ", "))
	b.WriteString(".\n")
	return b.String()
}

func incrementalTemplate(enabledPanels []infobar.Panel, strategy infobar.UpdateStrategy, missing []infobar.MissingFieldReport, mode OutputMode) string {
	var b strings.Builder
	b.WriteString("ROLE: info-bar data operator.\n")
	b.WriteString("TASK: emit ONLY changed or newly observed fields as operation commands.\n")
	b.WriteString("ROW NUMBERING: existing rows keep their current row number (starting at 1); new rows start at the next free row number.\n")
	b.WriteString("OUTPUT MODE: " + string(mode) + ".\n")
	b.WriteString(reasonSentence(strategy) + "\n")

	byPanel := map[string]infobar.MissingFieldReport{}
	for _, m := range missing {
		byPanel[m.PanelID] = m
	}
	var missingBlock strings.Builder
	for _, p := range enabledPanels {
		report, ok := byPanel[p.ID]
		if !ok || len(report.Fields) == 0 {
			continue
		}
		fmt.Fprintf(&missingBlock, "  panel %s missing fields to supply:\n", p.ID)
		for _, f := range report.Fields {
			fmt.Fprintf(&missingBlock, "    - %s", f.DisplayName)
			if len(f.MissingRows) > 0 {
				rowStrs := make([]string, len(f.MissingRows))
				for i, r := range f.MissingRows {
					rowStrs[i] = strconv.Itoa(r)
				}
				fmt.Fprintf(&missingBlock, " (rows %s)", strings.Join(rowStrs, ", "))
			} else {
				missingBlock.WriteString(" (no data anywhere)")
			}
			missingBlock.WriteString("\n")
		}
	}
	if missingBlock.Len() > 0 {
		b.WriteString("MISSING FIELDS TO SUPPLY:\n")
		b.WriteString(missingBlock.String())
	}
	return b.String()
}

func referenceLine(op string, p infobar.Panel) string {
	var pairs []string
	for col, item := range p.SubItems {
		pairs = append(pairs, fmt.Sprintf("%q,%q", strconv.Itoa(col+1), item.DisplayName))
	}
	return fmt.Sprintf("%s %s(1 {%s})", op, p.ID, strings.Join(pairs, ","))
}

func currentDataStatus(enabledPanels []infobar.Panel, current infobar.CurrentData) string {
	var b strings.Builder
	b.WriteString("=== CURRENT DATA STATUS ===\n")
	for _, p := range enabledPanels {
		table := current[p.ID]
		if table.RowCount() == 0 {
			fmt.Fprintf(&b, "panel %s: no data yet (%d fields to produce)\n", p.ID, p.ColumnCount())
			continue
		}
		fmt.Fprintf(&b, "panel %s:\n", p.ID)
		header := make([]string, p.ColumnCount())
		for i, item := range p.SubItems {
			header[i] = fmt.Sprintf("%d=%s", i+1, item.DisplayName)
		}
		fmt.Fprintf(&b, "  columns: %s\n", strings.Join(header, ", "))
		for i, row := range table.Rows {
			var cells []string
			for col := 1; col <= p.ColumnCount(); col++ {
				cells = append(cells, fmt.Sprintf("%d:%q", col, row[col]))
			}
			fmt.Fprintf(&b, "  row %d: {%s}\n", i+1, strings.Join(cells, ", "))
		}
	}
	return b.String()
}

func thinkOutputContract() string {
	var b strings.Builder
	b.WriteString("=== OUTPUT CONTRACT ===\n")
	b.WriteString("Your reply MUST contain exactly these two tags, in this order:\n")
	b.WriteString("<aiThinkProcess><!-- five-step analysis --></aiThinkProcess>\n")
	b.WriteString("<infobar_data><!-- operation commands --></infobar_data>\n")
	b.WriteString("The analysis inside <aiThinkProcess> must walk through these five steps, using these exact names:\n")
	stepLines := make([]string, len(fiveSteps))
	for i, s := range fiveSteps {
		stepLines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	b.WriteString(strings.Join(stepLines, "\n"))
	b.WriteString("\n")
	return b.String()
}
