package storage

import (
	"fmt"
	"time"

	"github.com/fesexport/backend/model"
)

// Adapter converts between the persisted and wizard shapes.
type Adapter struct{}

func (Adapter) DocumentType() model.DocumentType {
	return model.StorageDocument
}

// Decode reads a draft's exportData. Both destination fields may hold a legacy
// bare country name.
func (Adapter) Decode(d *model.Draft) (Document, error) {
	var doc Document
	if d == nil || d.ExportData == nil {
		return doc, nil
	}
	fields := d.ExportData.Clone()
	model.NormalizeCountry(fields, "exportedTo")
	model.NormalizeCountry(fields, "transportation", "exportedTo")
	if err := fields.Decode(&doc); err != nil {
		return doc, fmt.Errorf("storage document %s: %w", d.DocumentNumber, err)
	}
	return doc, nil
}

func copyCountry(c *model.Country) *model.Country {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// ToFrontEnd maps the persisted shape to the wizard shape.
func ToFrontEnd(doc Document, userReference string) FrontEnd {
	fe := FrontEnd{
		StepState:     model.StepState{Errors: doc.Errors, ErrorsURL: doc.ErrorsURL},
		Catches:       append([]Catch{}, doc.Catches...),
		Facilities:    append([]Facility{}, doc.StorageFacilities...),
		ExportedTo:    copyCountry(doc.ExportedTo),
		UserReference: userReference,
	}
	if doc.ExporterDetails != nil {
		fe.Exporter = *doc.ExporterDetails
	}
	if doc.Transportation != nil {
		fe.Transport = *doc.Transportation
		fe.Transport.ExportedTo = copyCountry(doc.Transportation.ExportedTo)
	}
	return fe
}

// ToBackEnd maps the wizard shape to the persisted shape.
func ToBackEnd(fe FrontEnd, exporter *model.Exporter, documentNumber string) Document {
	doc := Document{
		Catches:           append([]Catch(nil), fe.Catches...),
		StorageFacilities: append([]Facility(nil), fe.Facilities...),
		ExportedTo:        copyCountry(fe.ExportedTo),
		Errors:            fe.Errors,
		ErrorsURL:         fe.ErrorsURL,
	}
	e := fe.Exporter
	if exporter != nil {
		if e.ContactID == "" {
			e.ContactID = exporter.ContactID
		}
		if e.AccountID == "" {
			e.AccountID = exporter.AccountID
		}
	}
	if e != (model.Exporter{}) {
		doc.ExporterDetails = &e
	}
	if fe.Transport != (model.Transport{}) {
		t := fe.Transport
		t.ExportedTo = copyCountry(fe.Transport.ExportedTo)
		doc.Transportation = &t
	}

	ids := model.NewEntryIDs()
	for i := range doc.Catches {
		if doc.Catches[i].ID == "" {
			doc.Catches[i].ID = ids.Next(documentNumber)
		}
	}
	for i := range doc.StorageFacilities {
		if doc.StorageFacilities[i].ID == "" {
			doc.StorageFacilities[i].ID = ids.Next(documentNumber)
		}
	}
	return doc
}

// FromDraft returns the wizard shape of d, or the initial state for no draft.
func (a Adapter) FromDraft(d *model.Draft) (FrontEnd, error) {
	doc, err := a.Decode(d)
	if err != nil {
		return FrontEnd{}, err
	}
	ref := ""
	if d != nil {
		ref = d.UserReference
	}
	return ToFrontEnd(doc, ref), nil
}

// Exporter returns the exporter details currently persisted on d.
func (a Adapter) Exporter(d *model.Draft) *model.Exporter {
	doc, err := a.Decode(d)
	if err != nil {
		return nil
	}
	return doc.ExporterDetails
}

// Update builds the upsert for a wizard shape.
func (Adapter) Update(fe FrontEnd, exporter *model.Exporter, documentNumber string) (model.DraftUpdate, error) {
	fields, err := model.ToFields(ToBackEnd(fe, exporter, documentNumber))
	if err != nil {
		return model.DraftUpdate{}, err
	}
	ref := fe.UserReference
	return model.DraftUpdate{DocumentType: model.StorageDocument, ExportData: fields, UserReference: &ref}, nil
}

// Clone copies src into a fresh draft with new catch and facility ids.
func (a Adapter) Clone(src *model.Draft, documentNumber string, requestByAdmin bool, now time.Time) (*model.Draft, error) {
	doc, err := a.Decode(src)
	if err != nil {
		return nil, err
	}
	var existing []string
	for _, c := range doc.Catches {
		existing = append(existing, c.ID)
	}
	for _, f := range doc.StorageFacilities {
		existing = append(existing, f.ID)
	}
	ids := model.NewEntryIDs(existing...)

	catches := make([]Catch, len(doc.Catches))
	for i, c := range doc.Catches {
		c.ID = ids.Next(documentNumber)
		catches[i] = c
	}
	facilities := make([]Facility, len(doc.StorageFacilities))
	for i, f := range doc.StorageFacilities {
		f.ID = ids.Next(documentNumber)
		facilities[i] = f
	}

	fe := ToFrontEnd(doc, "")
	fe.Catches = catches
	fe.Facilities = facilities
	fe.StepState.Clear()
	fields, err := model.ToFields(ToBackEnd(fe, nil, documentNumber))
	if err != nil {
		return nil, err
	}
	return model.NewClonedDraft(src, documentNumber, fields, requestByAdmin, now), nil
}
