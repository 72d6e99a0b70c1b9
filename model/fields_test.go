package model

import (
	"net/url"
	"reflect"
	"testing"
)

func TestFieldsMergeReplacesArraysAndMergesObjects(t *testing.T) {
	base := Fields{
		"exporter": map[string]any{"exporterFullName": "Jo Bloggs", "postcode": "AB1 2CD"},
		"catches":  []any{map[string]any{"species": "Cod"}, map[string]any{"species": "Hake"}},
	}
	base.Merge(Fields{
		"exporter": map[string]any{"postcode": "EF3 4GH"},
		"catches":  []any{map[string]any{"species": "Plaice"}},
	})

	exporter := base["exporter"].(map[string]any)
	if exporter["exporterFullName"] != "Jo Bloggs" {
		t.Errorf("Expected exporterFullName to survive merge, got %v", exporter["exporterFullName"])
	}
	if exporter["postcode"] != "EF3 4GH" {
		t.Errorf("Expected postcode to be overwritten, got %v", exporter["postcode"])
	}
	if catches := base["catches"].([]any); len(catches) != 1 {
		t.Errorf("Expected catches array to be replaced, got %d entries", len(catches))
	}
}

func TestFieldsMergeDottedKeysAddressLeaves(t *testing.T) {
	base := Fields{
		"catches": []any{
			map[string]any{"id": "a", "species": "Cod"},
			map[string]any{"id": "b", "species": "Hake"},
		},
	}
	base.Merge(Fields{"catches.1.species": "Plaice", "catches.2.species": "Sole"})

	catches := base["catches"].([]any)
	if len(catches) != 3 {
		t.Fatalf("Expected 3 catches, got %d", len(catches))
	}
	second := catches[1].(map[string]any)
	if second["id"] != "b" || second["species"] != "Plaice" {
		t.Errorf("Expected catch b to be Plaice, got %v", second)
	}
	if third := catches[2].(map[string]any); third["species"] != "Sole" {
		t.Errorf("Expected new catch Sole, got %v", third)
	}
}

func TestFieldsSetPathIgnoresHugeIndices(t *testing.T) {
	f := Fields{}
	f.SetPath("catches.100000.species", "Cod")
	if list, _ := f["catches"].([]any); len(list) != 0 {
		t.Errorf("Expected no entries to be allocated, got %d", len(list))
	}
}

func TestFieldsCloneIsDeep(t *testing.T) {
	orig := Fields{"catches": []any{map[string]any{"species": "Cod"}}}
	cp := orig.Clone()
	cp["catches"].([]any)[0].(map[string]any)["species"] = "Hake"

	if orig["catches"].([]any)[0].(map[string]any)["species"] != "Cod" {
		t.Error("Expected clone to leave the original untouched")
	}
}

func TestFieldsFromForm(t *testing.T) {
	values := url.Values{}
	values.Set("catches.0.species", "Cod")
	values["legislation[]"] = []string{"a", "b"}

	f := FieldsFromForm(values)
	if f["catches.0.species"] != "Cod" {
		t.Errorf("Expected dotted key to be kept, got %v", f)
	}
	if !reflect.DeepEqual(f["legislation"], []any{"a", "b"}) {
		t.Errorf("Expected repeated values to become a list, got %v", f["legislation"])
	}
	if !f.Has("catches") {
		t.Error("Expected Has to see dotted roots")
	}
}

func TestToFieldsAndDecode(t *testing.T) {
	in := Exporter{ExporterFullName: "Jo", Postcode: "AB1 2CD"}
	f, err := ToFields(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var out Exporter
	if err := f.Decode(&out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}

func TestNormalizeCountry(t *testing.T) {
	f := Fields{"transportation": map[string]any{"exportedTo": "France"}, "exportedTo": ""}
	NormalizeCountry(f, "transportation", "exportedTo")
	NormalizeCountry(f, "exportedTo")

	got := f["transportation"].(map[string]any)["exportedTo"]
	want := map[string]any{"officialCountryName": "France"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if _, ok := f["exportedTo"]; ok {
		t.Error("Expected blank legacy country to be dropped")
	}
}
