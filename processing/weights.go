package processing

import (
	"context"
	"fmt"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/validation"
)

// LandedWeights reports how much of a species a completed catch certificate
// landed. ok is false when the certificate or species is unknown.
type LandedWeights interface {
	TotalWeightLanded(ctx context.Context, certNumber, speciesCode string) (weight float64, ok bool, err error)
}

// ResolveLandedWeights refreshes each catch's totalWeightLanded from the
// certificate it cites. It only runs when the submitted payload carries
// catches.
func ResolveLandedWeights(ctx context.Context, lookup LandedWeights, fe *FrontEnd, payload model.Fields) error {
	if lookup == nil || !payload.Has("catches") {
		return nil
	}
	for i := range fe.Catches {
		c := &fe.Catches[i]
		c.TotalWeightLanded = ""
		if c.CatchCertificateType != CertificateUK || !validation.IsCatchCertificateNumber(c.CatchCertificateNumber) {
			continue
		}
		weight, ok, err := lookup.TotalWeightLanded(ctx, c.CatchCertificateNumber, c.SpeciesCode)
		if err != nil {
			return fmt.Errorf("total weight landed for %s: %w", c.CatchCertificateNumber, err)
		}
		if ok {
			c.TotalWeightLanded = validation.FormatNumber(weight)
		}
	}
	return nil
}
