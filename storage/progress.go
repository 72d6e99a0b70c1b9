package storage

import (
	"context"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/progress"
	"github.com/fesexport/backend/steps"
)

// ProgressRule evaluates a persisted storage document.
func (a Adapter) ProgressRule() progress.Rule {
	return func(ctx context.Context, d *model.Draft) (*model.Progress, error) {
		fe, err := a.FromDraft(d)
		if err != nil {
			return nil, err
		}
		return Sections(fe), nil
	}
}

// Sections computes storage document progress using the step rules.
func Sections(fe FrontEnd) *model.Progress {
	recorded := fe.Errors

	catches := progress.Section{Name: SectionCatches, Errored: recorded.HasSection(SectionCatches), Complete: len(fe.Catches) > 0}
	for i, c := range fe.Catches {
		if len(CatchErrors(c, i)) > 0 {
			catches.Complete = false
		}
	}
	facilities := progress.Section{Name: SectionFacilities, Errored: recorded.HasSection(SectionFacilities), Complete: len(fe.Facilities) > 0}
	for i, f := range fe.Facilities {
		if len(FacilityErrors(f, i)) > 0 {
			facilities.Complete = false
		}
	}

	vehicleErr, detailsErr := steps.RecordedTransportErrors(recorded)
	return progress.Evaluate(
		progress.Reference(fe.UserReference),
		progress.Section{Name: SectionExporter, Errored: recorded.HasSection(SectionExporter), Complete: len(steps.ExporterErrors(fe.Exporter)) == 0},
		catches,
		facilities,
		progress.Section{Name: SectionDestination, Errored: recorded.HasSection(SectionDestination), Complete: len(steps.DestinationErrors(SectionDestination, fe.ExportedTo)) == 0},
		progress.Section{Name: SectionTransportType, Errored: vehicleErr, Complete: len(steps.VehicleErrors(fe.Transport)) == 0},
		progress.Section{
			Name:        SectionTransportDetails,
			CannotStart: len(steps.VehicleErrors(fe.Transport)) > 0,
			Errored:     detailsErr,
			Complete:    len(steps.TransportDetailsErrors(fe.Transport)) == 0,
		},
	)
}
