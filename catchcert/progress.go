package catchcert

import (
	"context"
	"fmt"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/progress"
	"github.com/fesexport/backend/steps"
)

// LandingsChecker returns the ids of products whose landings the reference
// service has flagged for a document.
type LandingsChecker interface {
	LandingsErrors(ctx context.Context, documentNumber string) ([]string, error)
}

// ProgressRule evaluates a persisted catch certificate. It reports nothing
// until a landings entry option has been chosen.
func (a Adapter) ProgressRule(checker LandingsChecker, now func() time.Time) progress.Rule {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, d *model.Draft) (*model.Progress, error) {
		fe, err := a.FromDraft(d)
		if err != nil {
			return nil, err
		}
		if fe.LandingsEntryOption == "" {
			return nil, nil
		}
		var flagged []string
		if checker != nil {
			flagged, err = checker.LandingsErrors(ctx, d.DocumentNumber)
			if err != nil {
				return nil, fmt.Errorf("landings errors for %s: %w", d.DocumentNumber, err)
			}
		}
		return Sections(fe, flagged, now()), nil
	}
}

// Sections computes catch certificate progress using the step rules.
// flagged lists product ids with landings errors recorded elsewhere.
func Sections(fe FrontEnd, flagged []string, now time.Time) *model.Progress {
	recorded := fe.Errors
	productsDone := len(ProductsErrors(fe.Products)) == 0

	landings := progress.Section{
		Name:        SectionLandings,
		CannotStart: !productsDone,
		Errored:     recorded.HasSection(SectionLandings),
		Complete:    len(fe.Products) > 0,
	}
	for i, p := range fe.Products {
		for _, id := range flagged {
			if id != "" && id == p.ID {
				landings.Errored = true
			}
		}
		if len(LandingErrors(p, i, now)) > 0 {
			landings.Complete = false
		}
	}

	vehicleErr, detailsErr := steps.RecordedTransportErrors(recorded)
	sections := []progress.Section{
		progress.Reference(fe.UserReference),
		{Name: SectionExporter, Errored: recorded.HasSection(SectionExporter), Complete: len(steps.ExporterErrors(fe.Exporter)) == 0},
		{Name: SectionProducts, Errored: recorded.HasSection(SectionProducts), Complete: productsDone},
		landings,
		{Name: SectionConservation, Errored: recorded.HasSection(SectionConservation), Complete: len(ConservationErrors(fe.Conservation)) == 0},
		{Name: SectionExportJourney, Errored: recorded.HasSection(SectionExportJourney), Complete: len(steps.DestinationErrors(SectionExportJourney, fe.Transport.ExportedTo)) == 0},
		{Name: SectionTransportType, Errored: vehicleErr, Complete: len(steps.VehicleErrors(fe.Transport)) == 0},
		{
			Name:        SectionTransportDetails,
			CannotStart: len(steps.VehicleErrors(fe.Transport)) > 0,
			Errored:     detailsErr,
			Complete:    len(steps.TransportDetailsErrors(fe.Transport)) == 0,
		},
	}
	if fe.LandingsEntryOption == EntryUpload {
		sections = append(sections, progress.Section{Name: model.SectionDataUpload, Meta: true, Optional: true})
	}
	return progress.Evaluate(sections...)
}
