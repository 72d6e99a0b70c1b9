package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
)

const docNumber = "GBR-2025-SD-ABCDEF123"

func sampleFrontEnd() FrontEnd {
	return FrontEnd{
		Exporter: model.Exporter{
			ExporterFullName:    "Jo Bloggs",
			ExporterCompanyName: "Bloggs Cold Store",
			AddressOne:          "1 Quay Street",
			Postcode:            "AB1 2CD",
		},
		Catches: []Catch{{
			ID:                    docNumber + "-1",
			Product:               "Atlantic cod",
			SpeciesCode:           "COD",
			CommodityCode:         "03025110",
			CertificateNumber:     "GBR-2025-CC-ABCDEF123",
			CertificateType:       CertificateUK,
			ProductWeight:         "50",
			WeightOnCC:            "100",
			PlaceOfUnloading:      "Hull",
			DateOfUnloading:       "01/03/2025",
			TransportUnloadedFrom: "Truck AB12",
		}},
		Facilities: []Facility{{
			ID:                 docNumber + "-2",
			FacilityName:       "North Cold Store",
			FacilityAddressOne: "2 Dock Road",
			FacilityTownCity:   "Hull",
			FacilityPostcode:   "HU1 1AA",
		}},
		ExportedTo: &model.Country{OfficialCountryName: "France"},
		Transport: model.Transport{
			Vehicle:           model.VehicleTrain,
			RailwayBillNumber: "RB123",
			DeparturePlace:    "Hull",
		},
	}
}

type fakeReference struct{ invalid bool }

func (f fakeReference) ValidateSpeciesName(ctx context.Context, name string) (model.ReferenceResult, error) {
	return model.ReferenceResult{IsError: f.invalid}, nil
}

func (f fakeReference) ValidateSpeciesWithSuggestions(ctx context.Context, name string) (model.ReferenceResult, error) {
	return model.ReferenceResult{IsError: f.invalid}, nil
}

func (f fakeReference) ValidateCommodityCode(ctx context.Context, code string) (model.ReferenceResult, error) {
	return model.ReferenceResult{IsError: f.invalid}, nil
}

type fakeDocuments struct{ exists, speciesMatch bool }

func (f fakeDocuments) ValidateCompletedDocument(ctx context.Context, certNumber, userPrincipal, contactID, callingDocumentNumber string) (bool, error) {
	return f.exists, nil
}

func (f fakeDocuments) ValidateSpecies(ctx context.Context, certNumber, species, speciesCode, userPrincipal, contactID, callingDocumentNumber string) (bool, error) {
	return f.speciesMatch, nil
}

func run(t *testing.T, deps steps.Dependencies, path string, data FrontEnd) steps.Output[FrontEnd] {
	t.Helper()
	r, err := steps.Compose(Routes(deps))
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	h, params, ok := r.Lookup(path)
	if !ok {
		t.Fatalf("No handler for %s", path)
	}
	out, err := h(context.Background(), steps.Input[FrontEnd]{
		Identity: steps.Identity{DocumentNumber: docNumber, UserPrincipal: "user-1"},
		Data:     data,
		Params:   params,
	})
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	fe := sampleFrontEnd()
	fe.UserReference = "ref"
	fe.AddAnotherProduct = "no"

	update, err := Adapter{}.Update(fe, nil, docNumber)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, ok := update.ExportData["storageFacilities"]; !ok {
		t.Error("Expected facilities to be persisted as storageFacilities")
	}
	if _, ok := update.ExportData["transportation"]; !ok {
		t.Error("Expected transport to be persisted as transportation")
	}

	got, err := Adapter{}.FromDraft(&model.Draft{ExportData: update.ExportData, UserReference: *update.UserReference})
	if err != nil {
		t.Fatalf("FromDraft failed: %v", err)
	}
	fe.AddAnotherProduct = ""
	if !reflect.DeepEqual(got, fe) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, fe)
	}
}

func TestDecodeLegacyTransportCountry(t *testing.T) {
	d := &model.Draft{ExportData: model.Fields{
		"transportation": map[string]any{"vehicle": "plane", "exportedTo": "Italy"},
	}}
	doc, err := Adapter{}.Decode(d)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if doc.Transportation.ExportedTo.Name() != "Italy" {
		t.Errorf("Expected Italy, got %q", doc.Transportation.ExportedTo.Name())
	}
}

func TestClone(t *testing.T) {
	update, err := Adapter{}.Update(sampleFrontEnd(), nil, docNumber)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	src := &model.Draft{DocumentNumber: docNumber, DocumentType: model.StorageDocument, UserPrincipal: "user-1",
		Status: model.StatusComplete, ExportData: update.ExportData}

	clone, err := Adapter{}.Clone(src, "GBR-2025-SD-NEWNEW123", true, time.Now())
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if !clone.RequestByAdmin || clone.Status != model.StatusDraft {
		t.Errorf("Unexpected clone state: admin=%v status=%s", clone.RequestByAdmin, clone.Status)
	}
	fe, err := Adapter{}.FromDraft(clone)
	if err != nil {
		t.Fatalf("FromDraft failed: %v", err)
	}
	if fe.Catches[0].ID == docNumber+"-1" || fe.Facilities[0].ID == docNumber+"-2" {
		t.Error("Expected regenerated ids")
	}
	if fe.Catches[0].ID == fe.Facilities[0].ID {
		t.Error("Expected sibling ids to differ")
	}
	if fe.Catches[0].Product != "Atlantic cod" {
		t.Errorf("Expected cloned product, got %q", fe.Catches[0].Product)
	}
}

func TestProductStep(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Catch)
		deps steps.Dependencies
		key  string
		want string
	}{
		{"valid", func(c *Catch) {}, steps.Dependencies{Reference: fakeReference{}, Documents: fakeDocuments{true, true}}, "catches-0-certificateNumber", ""},
		{"certificate not found", func(c *Catch) {}, steps.Dependencies{Reference: fakeReference{}, Documents: fakeDocuments{}}, "catches-0-certificateNumber", "sdAddProductErrorUKCCNumberNotExist"},
		{"uk format", func(c *Catch) { c.CertificateNumber = "GBR-2025-SD-ABCDEF123" }, steps.Dependencies{Documents: fakeDocuments{true, true}}, "catches-0-certificateNumber", "sdAddProductErrorUKCCNumberFormatInvalid"},
		{"non uk skips lookups", func(c *Catch) { c.CertificateType = CertificateNonUK; c.CertificateNumber = "NO-1" }, steps.Dependencies{Documents: fakeDocuments{}}, "catches-0-certificateNumber", ""},
		{"unknown commodity code", func(c *Catch) {}, steps.Dependencies{Reference: fakeReference{invalid: true}, Documents: fakeDocuments{true, true}}, "catches-0-commodityCode", "sdAddProductErrorCommodityCodeInvalid"},
		{"weight exceeds certificate", func(c *Catch) { c.ProductWeight = "150" }, steps.Dependencies{}, "catches-0-productWeight", "sdAddProductErrorProductWeightExceedsWeightOnCC"},
		{"bad date", func(c *Catch) { c.DateOfUnloading = "31/02/2025" }, steps.Dependencies{}, "catches-0-dateOfUnloading", "sdAddProductErrorDateOfUnloadingInvalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := sampleFrontEnd()
			tt.edit(&fe.Catches[0])
			out := run(t, tt.deps, Prefix+"/add-product-to-this-consignment/0", fe)
			if got := out.Errors[tt.key].Key; got != tt.want {
				t.Errorf("Expected %q, got %q (all errors %v)", tt.want, got, out.Errors)
			}
		})
	}
}

func TestProductWeightCanonical(t *testing.T) {
	fe := sampleFrontEnd()
	fe.Catches[0].ProductWeight = "050.0"
	out := run(t, steps.Dependencies{}, Prefix+"/add-product-to-this-consignment/0", fe)
	if got := out.Data.Catches[0].ProductWeight; got != "50" {
		t.Errorf("Expected 50, got %q", got)
	}
}

func TestEntryIndexOutOfRange(t *testing.T) {
	r, err := steps.Compose(Routes(steps.Dependencies{}))
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"product gap", Prefix + "/add-product-to-this-consignment/3"},
		{"product huge", Prefix + "/add-product-to-this-consignment/200000"},
		{"facility gap", Prefix + "/add-storage-facility-details/2"},
		{"facility huge", Prefix + "/add-storage-facility-details/999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, params, ok := r.Lookup(tt.path)
			if !ok {
				t.Fatalf("No handler for %s", tt.path)
			}
			fe := sampleFrontEnd()
			_, err := h(context.Background(), steps.Input[FrontEnd]{
				Identity: steps.Identity{DocumentNumber: docNumber, UserPrincipal: "user-1"},
				Data:     fe,
				Params:   params,
			})
			if !errors.Is(err, steps.ErrInvalidIndex) {
				t.Errorf("Expected ErrInvalidIndex, got %v", err)
			}
			if len(fe.Catches) != 1 || len(fe.Facilities) != 1 {
				t.Error("Expected the input lists not to grow")
			}
		})
	}
}

func TestFacilityStep(t *testing.T) {
	fe := sampleFrontEnd()
	fe.Facilities = append(fe.Facilities, Facility{FacilityName: "South Store", FacilityPostcode: "not a postcode"})

	out := run(t, steps.Dependencies{}, Prefix+"/add-storage-facility-details/1", fe)
	for _, key := range []string{"storageFacilities-1-facilityAddressOne", "storageFacilities-1-facilityTownCity", "storageFacilities-1-facilityPostcode"} {
		if _, ok := out.Errors[key]; !ok {
			t.Errorf("Expected error %s, got %v", key, out.Errors)
		}
	}
	if out.Data.Facilities[1].ID == "" {
		t.Error("Expected the facility to get an id")
	}
}

func TestFacilityAdded(t *testing.T) {
	fe := sampleFrontEnd()
	fe.AddAnotherStorageFacility = "yes"
	out := run(t, steps.Dependencies{}, Prefix+"/you-have-added-a-storage-facility", fe)
	want := "/create-storage-document/" + docNumber + "/add-storage-facility-details/1"
	if out.Next != want {
		t.Errorf("Expected %s, got %s", want, out.Next)
	}
}

func TestSections(t *testing.T) {
	p := Sections(sampleFrontEnd())
	if !p.IsComplete() || p.RequiredSections != 6 {
		t.Errorf("Expected 6 of 6 sections complete, got %+v", p)
	}
	if p.Progress["reference"] != model.SectionOptional {
		t.Errorf("Expected reference OPTIONAL, got %s", p.Progress["reference"])
	}

	fe := sampleFrontEnd()
	fe.Transport = model.Transport{}
	p = Sections(fe)
	if p.Progress[SectionTransportType] != model.SectionIncomplete {
		t.Errorf("Expected transportType INCOMPLETE, got %s", p.Progress[SectionTransportType])
	}
	if p.Progress[SectionTransportDetails] != model.SectionCannotStart {
		t.Errorf("Expected transportDetails CANNOT START, got %s", p.Progress[SectionTransportDetails])
	}

	fe.Transport = model.Transport{Vehicle: model.VehicleTruck, Cmr: "true"}
	p = Sections(fe)
	if p.Progress[SectionTransportDetails] != model.SectionCompleted {
		t.Errorf("Expected CMR truck transportDetails COMPLETED, got %s", p.Progress[SectionTransportDetails])
	}

	fe.StepState = model.StepState{Errors: model.Errors{"transport-registrationNumber": model.Message("x")}}
	p = Sections(fe)
	if p.Progress[SectionTransportDetails] != model.SectionError {
		t.Errorf("Expected transportDetails ERROR, got %s", p.Progress[SectionTransportDetails])
	}
	if p.Progress[SectionTransportType] != model.SectionCompleted {
		t.Errorf("Expected transportType COMPLETED, got %s", p.Progress[SectionTransportType])
	}
}
