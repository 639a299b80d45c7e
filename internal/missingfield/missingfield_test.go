package missingfield

import (
	"reflect"
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

func panel(id string) infobar.Panel {
	return infobar.Panel{
		ID: id,
		SubItems: []infobar.SubItem{
			{Key: "1", DisplayName: "Name", Enabled: true},
			{Key: "2", DisplayName: "Age", Enabled: true},
		},
	}
}

func TestDetect_ZeroRowsReportsEverySubItem(t *testing.T) {
	reports := Detect([]infobar.Panel{panel("personal")}, infobar.CurrentData{})
	if len(reports) != 1 || len(reports[0].Fields) != 2 {
		t.Fatalf("expected both sub-items reported missing, got %+v", reports)
	}
	if reports[0].Fields[0].TotalRows != 0 {
		t.Fatalf("expected totalRows=0")
	}
}

func TestDetect_RowWithDataButBlankColumnIsMissingWithRowList(t *testing.T) {
	current := infobar.CurrentData{
		"personal": {Rows: []infobar.Row{{1: "Alice", 2: ""}}},
	}
	reports := Detect([]infobar.Panel{panel("personal")}, current)
	fields := reports[0].Fields
	var ageField *infobar.FieldMissingInfo
	for i := range fields {
		if fields[i].Key == "2" {
			ageField = &fields[i]
		}
	}
	if ageField == nil {
		t.Fatalf("expected age field reported missing, got %+v", fields)
	}
	if !reflect.DeepEqual(ageField.MissingRows, []int{1}) {
		t.Fatalf("expected missingRows=[1], got %+v", ageField.MissingRows)
	}
}

func TestDetect_FullyPopulatedFieldNotReported(t *testing.T) {
	current := infobar.CurrentData{
		"personal": {Rows: []infobar.Row{{1: "Alice", 2: "30"}, {1: "Bob", 2: "40"}}},
	}
	reports := Detect([]infobar.Panel{panel("personal")}, current)
	if len(reports[0].Fields) != 0 {
		t.Fatalf("expected no missing fields, got %+v", reports[0].Fields)
	}
}

func TestDetect_MoreThanHalfBlankReportedWithoutRowsHavingData(t *testing.T) {
	current := infobar.CurrentData{
		// Rows with no data at all (blank in every column) don't trigger
		// the row-list clause, but the field is still >50% blank overall.
		"personal": {Rows: []infobar.Row{{1: "", 2: ""}, {1: "", 2: ""}, {1: "Carl", 2: "50"}}},
	}
	reports := Detect([]infobar.Panel{panel("personal")}, current)
	if len(reports[0].Fields) != 2 {
		t.Fatalf("expected both fields reported (blank rate > 50%%), got %+v", reports[0].Fields)
	}
}
