package infobar

// PanelRule is a panel-level natural-language rule set collected from
// rule-manager collaborators. Filter is an expression string evaluated
// against a rule-evaluation context to decide whether the rule applies
// to the current turn.
type PanelRule struct {
	PanelID     string
	Description string
	AddRule     string
	UpdateRule  string
	DeleteRule  string
	Filter      string
}

// FieldRule is a field-level constraint rendered alongside its panel's
// rule block.
type FieldRule struct {
	PanelID  string
	FieldKey string
	Examples []string
	Type     string
	Range    string
}

// RuleContext is the variable set exposed to a PanelRule.Filter
// expression during evaluation.
type RuleContext struct {
	PanelID  string
	Coverage int
	RowCount int
}
