package steps

import (
	"context"

	"github.com/fesexport/backend/model"
)

// ReferenceData validates species names and commodity codes against the
// external reference service.
type ReferenceData interface {
	ValidateSpeciesName(ctx context.Context, name string) (model.ReferenceResult, error)
	ValidateSpeciesWithSuggestions(ctx context.Context, name string) (model.ReferenceResult, error)
	ValidateCommodityCode(ctx context.Context, code string) (model.ReferenceResult, error)
}

// Documents answers questions about other export documents cited by a step.
// A false answer is a field error; an error return is a system failure.
type Documents interface {
	ValidateCompletedDocument(ctx context.Context, certNumber, userPrincipal, contactID, callingDocumentNumber string) (bool, error)
	ValidateSpecies(ctx context.Context, certNumber, species, speciesCode, userPrincipal, contactID, callingDocumentNumber string) (bool, error)
}

// Dependencies bundles the collaborators handlers may call.
type Dependencies struct {
	Reference ReferenceData
	Documents Documents
}
