package infobar

// PanelType distinguishes the built-in basic panels from user-authored
// custom panels. Both share the same shape once resolved by the registry.
type PanelType string

const (
	PanelTypeBasic  PanelType = "basic"
	PanelTypeCustom PanelType = "custom"
)

// SubItem is one ordered column inside a panel. Column number is the
// 1-based position of the item within Panel.SubItems, not a stored field.
type SubItem struct {
	Key         string
	DisplayName string
	Enabled     bool
}

// Panel is a named, ordered collection of sub-items resolved from
// configuration by the registry (C1). Panel.SubItems is already
// filtered to enabled items and deduplicated by Key.
type Panel struct {
	ID           string
	DisplayName  string
	Type         PanelType
	SubItems     []SubItem
	Enabled      bool
	MemoryInject bool
}

// ColumnCount returns the number of addressable columns (1..N).
func (p Panel) ColumnCount() int {
	return len(p.SubItems)
}

// SubItemAt returns the sub-item at 1-based column number col, or false
// if col is out of range.
func (p Panel) SubItemAt(col int) (SubItem, bool) {
	if col < 1 || col > len(p.SubItems) {
		return SubItem{}, false
	}
	return p.SubItems[col-1], true
}
