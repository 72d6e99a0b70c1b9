package catchcert

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/fesexport/backend/model"
)

type fakeChecker []string

func (f fakeChecker) LandingsErrors(ctx context.Context, documentNumber string) ([]string, error) {
	return f, nil
}

func rule(checker LandingsChecker) func(*model.Draft) (*model.Progress, error) {
	r := Adapter{}.ProgressRule(checker, func() time.Time { return fixedNow })
	return func(d *model.Draft) (*model.Progress, error) { return r(context.Background(), d) }
}

func TestProgressNotStarted(t *testing.T) {
	for _, d := range []*model.Draft{
		nil,
		{DocumentNumber: docNumber},
		{DocumentNumber: docNumber, ExportData: model.Fields{"exporterDetails": map[string]any{"exporterFullName": "Jo"}}},
	} {
		p, err := rule(nil)(d)
		if err != nil {
			t.Fatalf("Rule failed: %v", err)
		}
		if p != nil {
			t.Errorf("Expected nil progress, got %+v", p)
		}
	}
}

func TestProgressExample(t *testing.T) {
	d := &model.Draft{DocumentNumber: docNumber, ExportData: model.Fields{
		"exporterDetails": map[string]any{
			"exporterFullName":    "Jo Bloggs",
			"exporterCompanyName": "Bloggs Fish Ltd",
			"addressOne":          "1 Quay Street",
			"postcode":            "AB1 2CD",
			"contactId":           "contact-1",
		},
		"products":            []any{},
		"landingsEntryOption": "manualEntry",
	}}

	p, err := rule(nil)(d)
	if err != nil {
		t.Fatalf("Rule failed: %v", err)
	}
	want := map[string]model.SectionStatus{
		"reference":        model.SectionOptional,
		"exporter":         model.SectionCompleted,
		"products":         model.SectionIncomplete,
		"landings":         model.SectionCannotStart,
		"conservation":     model.SectionIncomplete,
		"exportJourney":    model.SectionIncomplete,
		"transportType":    model.SectionIncomplete,
		"transportDetails": model.SectionCannotStart,
	}
	if !reflect.DeepEqual(p.Progress, want) {
		t.Errorf("Expected %v, got %v", want, p.Progress)
	}
	if p.CompletedSections != 1 || p.RequiredSections != 7 {
		t.Errorf("Expected 1/7, got %d/%d", p.CompletedSections, p.RequiredSections)
	}
}

func TestProgressComplete(t *testing.T) {
	p := Sections(sampleFrontEnd(), nil, fixedNow)
	if !p.IsComplete() {
		t.Errorf("Expected complete, got %v", p.Progress)
	}
	if p.Progress["transportDetails"] != model.SectionCompleted {
		t.Errorf("Expected CMR truck COMPLETED, got %s", p.Progress["transportDetails"])
	}
}

func TestProgressCMRTruckIgnoresDetails(t *testing.T) {
	fe := sampleFrontEnd()
	fe.Transport = model.Transport{Vehicle: model.VehicleTruck, Cmr: "true"}
	if got := Sections(fe, nil, fixedNow).Progress["transportDetails"]; got != model.SectionCompleted {
		t.Errorf("Expected COMPLETED, got %s", got)
	}
	fe.Transport.Cmr = "false"
	if got := Sections(fe, nil, fixedNow).Progress["transportDetails"]; got != model.SectionIncomplete {
		t.Errorf("Expected INCOMPLETE without a CMR, got %s", got)
	}
}

func TestProgressLandings(t *testing.T) {
	fe := sampleFrontEnd()
	fe.Products[0].Landings = nil
	if got := Sections(fe, nil, fixedNow).Progress["landings"]; got != model.SectionIncomplete {
		t.Errorf("Expected INCOMPLETE for a product without landings, got %s", got)
	}

	flagged := Sections(sampleFrontEnd(), []string{docNumber + "-1"}, fixedNow)
	if got := flagged.Progress["landings"]; got != model.SectionError {
		t.Errorf("Expected ERROR for a flagged product, got %s", got)
	}
	if flagged.CompletedSections != flagged.RequiredSections {
		t.Error("Expected an errored section to count as attempted")
	}

	other := Sections(sampleFrontEnd(), []string{"another-product"}, fixedNow)
	if got := other.Progress["landings"]; got != model.SectionCompleted {
		t.Errorf("Expected COMPLETED when other products are flagged, got %s", got)
	}
}

func TestProgressDataUpload(t *testing.T) {
	fe := sampleFrontEnd()
	fe.LandingsEntryOption = EntryUpload
	p := Sections(fe, nil, fixedNow)
	if p.Progress["dataUpload"] != model.SectionOptional {
		t.Errorf("Expected dataUpload OPTIONAL, got %s", p.Progress["dataUpload"])
	}
	if p.RequiredSections != 7 {
		t.Errorf("Expected dataUpload not to be required, got %d", p.RequiredSections)
	}
	if _, ok := Sections(sampleFrontEnd(), nil, fixedNow).Progress["dataUpload"]; ok {
		t.Error("Expected no dataUpload section for manual entry")
	}
}

func TestProgressCheckerUsed(t *testing.T) {
	fe := sampleFrontEnd()
	update, err := Adapter{}.Update(fe, nil, docNumber)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	p, err := rule(fakeChecker{docNumber + "-1"})(&model.Draft{DocumentNumber: docNumber, ExportData: update.ExportData})
	if err != nil {
		t.Fatalf("Rule failed: %v", err)
	}
	if p.Progress["landings"] != model.SectionError {
		t.Errorf("Expected ERROR, got %s", p.Progress["landings"])
	}
}
