package processing

import (
	"context"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/progress"
	"github.com/fesexport/backend/steps"
)

// ProgressRule evaluates a persisted processing statement.
func (a Adapter) ProgressRule(now func() time.Time) progress.Rule {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, d *model.Draft) (*model.Progress, error) {
		fe, err := a.FromDraft(d)
		if err != nil {
			return nil, err
		}
		return Sections(fe, now()), nil
	}
}

// Sections computes processing statement progress using the step rules.
func Sections(fe FrontEnd, now time.Time) *model.Progress {
	recorded := fe.Errors
	section := func(name string, errs model.Errors) progress.Section {
		return progress.Section{Name: name, Errored: recorded.HasSection(name), Complete: len(errs) == 0}
	}

	catches := progress.Section{
		Name:        SectionCatches,
		CannotStart: len(ConsignmentErrors(fe.ConsignmentDescription)) > 0,
		Errored:     recorded.HasSection(SectionCatches),
		Complete:    len(fe.Catches) > 0,
	}
	for i, c := range fe.Catches {
		if len(CatchErrors(c, i)) > 0 {
			catches.Complete = false
			break
		}
	}

	return progress.Evaluate(
		progress.Reference(fe.UserReference),
		section(SectionExporter, steps.ExporterErrors(fe.Exporter)),
		section(SectionConsignment, ConsignmentErrors(fe.ConsignmentDescription)),
		catches,
		section(SectionPlant, PlantErrors(fe)),
		section(SectionPlantAddress, PlantAddressErrors(fe.PlantAddress)),
		section(SectionHealthCertificate, HealthCertificateErrors(fe.HealthCertificateNumber, fe.HealthCertificateDate, now)),
		section(SectionDestination, DestinationErrors(fe)),
	)
}
