package processing

import (
	"fmt"
	"time"

	"github.com/fesexport/backend/model"
)

// Adapter converts between the persisted and wizard shapes.
type Adapter struct{}

// DocumentType implements orchestration.Adapter.
func (Adapter) DocumentType() model.DocumentType {
	return model.ProcessingStatement
}

// Decode reads a draft's exportData, promoting a legacy string destination.
func (Adapter) Decode(d *model.Draft) (Statement, error) {
	var s Statement
	if d == nil || d.ExportData == nil {
		return s, nil
	}
	fields := d.ExportData.Clone()
	model.NormalizeCountry(fields, "exportedTo")
	if err := fields.Decode(&s); err != nil {
		return s, fmt.Errorf("processing statement %s: %w", d.DocumentNumber, err)
	}
	return s, nil
}

// ToFrontEnd maps the persisted shape to the wizard shape.
func ToFrontEnd(s Statement, userReference string) FrontEnd {
	fe := FrontEnd{
		StepState:                       model.StepState{Errors: s.Errors, ErrorsURL: s.ErrorsURL},
		Catches:                         append([]Catch{}, s.Catches...),
		ConsignmentDescription:          s.ConsignmentDescription,
		HealthCertificateNumber:         s.HealthCertificateNumber,
		HealthCertificateDate:           s.HealthCertificateDate,
		PersonResponsibleForConsignment: s.PersonResponsibleForConsignment,
		PlantApprovalNumber:             s.PlantApprovalNumber,
		PlantName:                       s.PlantName,
		PlantAddress: PlantAddress{
			AddressOne:     s.PlantAddressOne,
			BuildingName:   s.PlantBuildingName,
			BuildingNumber: s.PlantBuildingNumber,
			StreetName:     s.PlantStreetName,
			TownCity:       s.PlantTownCity,
			Postcode:       s.PlantPostcode,
		},
		DateOfAcceptance:   s.DateOfAcceptance,
		PointOfDestination: s.PointOfDestination,
		UserReference:      userReference,
	}
	if s.ExporterDetails != nil {
		fe.Exporter = *s.ExporterDetails
	}
	if s.ExportedTo != nil {
		c := *s.ExportedTo
		fe.ExportedTo = &c
	}
	return fe
}

// ToBackEnd maps the wizard shape to the persisted shape. Exporter identifiers
// the wizard does not carry are taken from exporter.
func ToBackEnd(fe FrontEnd, exporter *model.Exporter, documentNumber string) Statement {
	s := Statement{
		Catches:                         append([]Catch(nil), fe.Catches...),
		ConsignmentDescription:          fe.ConsignmentDescription,
		HealthCertificateNumber:         fe.HealthCertificateNumber,
		HealthCertificateDate:           fe.HealthCertificateDate,
		PersonResponsibleForConsignment: fe.PersonResponsibleForConsignment,
		PlantApprovalNumber:             fe.PlantApprovalNumber,
		PlantName:                       fe.PlantName,
		PlantAddressOne:                 fe.PlantAddress.AddressOne,
		PlantBuildingName:               fe.PlantAddress.BuildingName,
		PlantBuildingNumber:             fe.PlantAddress.BuildingNumber,
		PlantStreetName:                 fe.PlantAddress.StreetName,
		PlantTownCity:                   fe.PlantAddress.TownCity,
		PlantPostcode:                   fe.PlantAddress.Postcode,
		DateOfAcceptance:                fe.DateOfAcceptance,
		PointOfDestination:              fe.PointOfDestination,
		Errors:                          fe.Errors,
		ErrorsURL:                       fe.ErrorsURL,
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
		s.ExporterDetails = &e
	}
	if fe.ExportedTo != nil {
		c := *fe.ExportedTo
		s.ExportedTo = &c
	}
	ids := model.NewEntryIDs()
	for i := range s.Catches {
		if s.Catches[i].ID == "" {
			s.Catches[i].ID = ids.Next(documentNumber)
		}
	}
	return s
}

// FromDraft returns the wizard shape of d, or the initial state when there is
// no draft yet.
func (a Adapter) FromDraft(d *model.Draft) (FrontEnd, error) {
	s, err := a.Decode(d)
	if err != nil {
		return FrontEnd{}, err
	}
	ref := ""
	if d != nil {
		ref = d.UserReference
	}
	return ToFrontEnd(s, ref), nil
}

// Exporter returns the exporter details currently persisted on d.
func (a Adapter) Exporter(d *model.Draft) *model.Exporter {
	s, err := a.Decode(d)
	if err != nil {
		return nil
	}
	return s.ExporterDetails
}

// Update builds the upsert for a wizard shape.
func (Adapter) Update(fe FrontEnd, exporter *model.Exporter, documentNumber string) (model.DraftUpdate, error) {
	fields, err := model.ToFields(ToBackEnd(fe, exporter, documentNumber))
	if err != nil {
		return model.DraftUpdate{}, err
	}
	ref := fe.UserReference
	return model.DraftUpdate{DocumentType: model.ProcessingStatement, ExportData: fields, UserReference: &ref}, nil
}

// Clone copies src into a fresh draft numbered documentNumber. Catch ids are
// regenerated and the transient error state is dropped.
func (a Adapter) Clone(src *model.Draft, documentNumber string, requestByAdmin bool, now time.Time) (*model.Draft, error) {
	s, err := a.Decode(src)
	if err != nil {
		return nil, err
	}
	existing := make([]string, 0, len(s.Catches))
	for _, c := range s.Catches {
		existing = append(existing, c.ID)
	}
	ids := model.NewEntryIDs(existing...)

	catches := make([]Catch, len(s.Catches))
	for i, c := range s.Catches {
		c.ID = ids.Next(documentNumber)
		catches[i] = c
	}
	s.Catches = catches
	if s.ExporterDetails != nil {
		e := *s.ExporterDetails
		s.ExporterDetails = &e
	}
	if s.ExportedTo != nil {
		c := *s.ExportedTo
		s.ExportedTo = &c
	}
	s.Errors = nil
	s.ErrorsURL = ""

	fields, err := model.ToFields(s)
	if err != nil {
		return nil, err
	}
	return model.NewClonedDraft(src, documentNumber, fields, requestByAdmin, now), nil
}
