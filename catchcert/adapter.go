package catchcert

import (
	"fmt"
	"slices"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/validation"
)

// Adapter converts between the persisted and wizard shapes.
type Adapter struct{}

func (Adapter) DocumentType() model.DocumentType {
	return model.CatchCertificate
}

// Decode reads a draft's exportData.
func (Adapter) Decode(d *model.Draft) (Certificate, error) {
	var c Certificate
	if d == nil || d.ExportData == nil {
		return c, nil
	}
	fields := d.ExportData.Clone()
	model.NormalizeCountry(fields, "transportation", "exportedTo")
	if err := fields.Decode(&c); err != nil {
		return c, fmt.Errorf("catch certificate %s: %w", d.DocumentNumber, err)
	}
	return c, nil
}

func toValueLabel(c *CodeName) *ValueLabel {
	if c == nil {
		return nil
	}
	return &ValueLabel{Value: c.Code, Label: c.Name}
}

func toCodeName(v *ValueLabel) *CodeName {
	if v == nil || (v.Value == "" && v.Label == "") {
		return nil
	}
	return &CodeName{Code: v.Value, Name: v.Label}
}

func copyTransport(t model.Transport) model.Transport {
	if t.ExportedTo != nil {
		c := *t.ExportedTo
		t.ExportedTo = &c
	}
	return t
}

// ToFrontEnd maps the persisted shape to the wizard shape.
func ToFrontEnd(c Certificate, userReference string) FrontEnd {
	fe := FrontEnd{
		StepState:              model.StepState{Errors: c.Errors, ErrorsURL: c.ErrorsURL},
		Products:               make([]FrontEndProduct, 0, len(c.Products)),
		LandingsEntryOption:    c.LandingsEntryOption,
		LandingsEntryConfirmed: c.LandingsEntryConfirmed,
		UserReference:          userReference,
	}
	if c.ExporterDetails != nil {
		fe.Exporter = *c.ExporterDetails
	}
	if c.Conservation != nil {
		fe.Conservation = Conservation{
			ConservationReference: c.Conservation.ConservationReference,
			Legislation:           slices.Clone(c.Conservation.Legislation),
		}
	}
	if c.Transportation != nil {
		fe.Transport = copyTransport(*c.Transportation)
	}
	for _, p := range c.Products {
		fp := FrontEndProduct{
			ID:                       p.SpeciesID,
			Species:                  p.Species,
			SpeciesCode:              p.SpeciesCode,
			ScientificName:           p.ScientificName,
			CommodityCode:            p.CommodityCode,
			CommodityCodeDescription: p.CommodityCodeDescription,
			State:                    toValueLabel(p.State),
			Presentation:             toValueLabel(p.Presentation),
		}
		for _, l := range p.CaughtBy {
			fl := FrontEndLanding{
				ID:                  l.ID,
				Vessel:              l.Vessel,
				PLN:                 l.PLN,
				DateLanded:          l.Date,
				FaoArea:             l.FaoArea,
				NumberOfSubmissions: l.NumberOfSubmissions,
			}
			if l.Weight != 0 {
				fl.ExportWeight = validation.FormatNumber(l.Weight)
			}
			fp.Landings = append(fp.Landings, fl)
		}
		fe.Products = append(fe.Products, fp)
	}
	return fe
}

// ToBackEnd maps the wizard shape to the persisted shape. An export weight
// that is not a number has no persisted form and is dropped.
func ToBackEnd(fe FrontEnd, exporter *model.Exporter, documentNumber string) Certificate {
	c := Certificate{
		LandingsEntryOption:    fe.LandingsEntryOption,
		LandingsEntryConfirmed: fe.LandingsEntryConfirmed,
		Errors:                 fe.Errors,
		ErrorsURL:              fe.ErrorsURL,
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
		c.ExporterDetails = &e
	}
	if fe.Conservation.ConservationReference != "" || len(fe.Conservation.Legislation) > 0 {
		c.Conservation = &Conservation{
			ConservationReference: fe.Conservation.ConservationReference,
			Legislation:           slices.Clone(fe.Conservation.Legislation),
		}
	}
	if fe.Transport != (model.Transport{}) {
		t := copyTransport(fe.Transport)
		c.Transportation = &t
	}

	ids := model.NewEntryIDs()
	for _, fp := range fe.Products {
		p := Product{
			SpeciesID:                fp.ID,
			Species:                  fp.Species,
			SpeciesCode:              fp.SpeciesCode,
			ScientificName:           fp.ScientificName,
			CommodityCode:            fp.CommodityCode,
			CommodityCodeDescription: fp.CommodityCodeDescription,
			State:                    toCodeName(fp.State),
			Presentation:             toCodeName(fp.Presentation),
		}
		if p.SpeciesID == "" {
			p.SpeciesID = ids.Next(documentNumber)
		}
		for _, fl := range fp.Landings {
			l := Landing{
				ID:                  fl.ID,
				Vessel:              fl.Vessel,
				PLN:                 fl.PLN,
				Date:                fl.DateLanded,
				FaoArea:             fl.FaoArea,
				NumberOfSubmissions: fl.NumberOfSubmissions,
			}
			if w, ok := validation.ParseNumber(fl.ExportWeight); ok {
				l.Weight = w
			}
			if l.ID == "" {
				l.ID = ids.Next(documentNumber)
			}
			p.CaughtBy = append(p.CaughtBy, l)
		}
		c.Products = append(c.Products, p)
	}
	return c
}

// FromDraft returns the wizard shape of d, or the initial state for no draft.
func (a Adapter) FromDraft(d *model.Draft) (FrontEnd, error) {
	c, err := a.Decode(d)
	if err != nil {
		return FrontEnd{}, err
	}
	ref := ""
	if d != nil {
		ref = d.UserReference
	}
	return ToFrontEnd(c, ref), nil
}

// Exporter returns the exporter details currently persisted on d.
func (a Adapter) Exporter(d *model.Draft) *model.Exporter {
	c, err := a.Decode(d)
	if err != nil {
		return nil
	}
	return c.ExporterDetails
}

// Update builds the upsert for a wizard shape.
func (Adapter) Update(fe FrontEnd, exporter *model.Exporter, documentNumber string) (model.DraftUpdate, error) {
	fields, err := model.ToFields(ToBackEnd(fe, exporter, documentNumber))
	if err != nil {
		return model.DraftUpdate{}, err
	}
	ref := fe.UserReference
	return model.DraftUpdate{DocumentType: model.CatchCertificate, ExportData: fields, UserReference: &ref}, nil
}

// Clone copies src into a fresh draft. Product and landing ids are
// regenerated and landing submission counters start again from zero.
func (a Adapter) Clone(src *model.Draft, documentNumber string, requestByAdmin bool, now time.Time) (*model.Draft, error) {
	c, err := a.Decode(src)
	if err != nil {
		return nil, err
	}
	var existing []string
	for _, p := range c.Products {
		existing = append(existing, p.SpeciesID)
		for _, l := range p.CaughtBy {
			existing = append(existing, l.ID)
		}
	}
	ids := model.NewEntryIDs(existing...)

	products := make([]Product, len(c.Products))
	for i, p := range c.Products {
		p.SpeciesID = ids.Next(documentNumber)
		if p.State != nil {
			s := *p.State
			p.State = &s
		}
		if p.Presentation != nil {
			s := *p.Presentation
			p.Presentation = &s
		}
		landings := make([]Landing, len(p.CaughtBy))
		for j, l := range p.CaughtBy {
			l.ID = ids.Next(documentNumber)
			l.NumberOfSubmissions = 0
			landings[j] = l
		}
		p.CaughtBy = landings
		products[i] = p
	}
	c.Products = products
	if c.ExporterDetails != nil {
		e := *c.ExporterDetails
		c.ExporterDetails = &e
	}
	if c.Conservation != nil {
		cons := Conservation{ConservationReference: c.Conservation.ConservationReference, Legislation: slices.Clone(c.Conservation.Legislation)}
		c.Conservation = &cons
	}
	if c.Transportation != nil {
		t := copyTransport(*c.Transportation)
		c.Transportation = &t
	}
	c.Errors = nil
	c.ErrorsURL = ""

	fields, err := model.ToFields(c)
	if err != nil {
		return nil, err
	}
	return model.NewClonedDraft(src, documentNumber, fields, requestByAdmin, now), nil
}
