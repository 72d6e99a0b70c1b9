package service

import (
	"context"
	"strings"

	"github.com/fesexport/backend/catchcert"
	"github.com/fesexport/backend/model"
)

// DocumentValidator answers questions about catch certificates cited by
// other documents, using the submitted certificates in the draft store.
type DocumentValidator struct {
	store DraftStore
}

func NewDocumentValidator(store DraftStore) *DocumentValidator {
	return &DocumentValidator{store: store}
}

// completedCertificate returns the submitted catch certificate numbered
// certNumber, or nil when there is none.
func (v *DocumentValidator) completedCertificate(ctx context.Context, certNumber string) (*catchcert.Certificate, error) {
	d, err := v.store.GetDocument(ctx, certNumber)
	if err != nil {
		return nil, err
	}
	if d == nil || !d.IsComplete() || d.DocumentType != model.CatchCertificate {
		return nil, nil
	}
	cert, err := catchcert.Adapter{}.Decode(d)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// ValidateCompletedDocument reports whether certNumber is a submitted catch
// certificate. A document cannot cite itself.
func (v *DocumentValidator) ValidateCompletedDocument(ctx context.Context, certNumber, userPrincipal, contactID, callingDocumentNumber string) (bool, error) {
	if certNumber == callingDocumentNumber {
		return false, nil
	}
	cert, err := v.completedCertificate(ctx, certNumber)
	return cert != nil, err
}

// ValidateSpecies reports whether the certificate lists the species, matched
// by FAO code or, failing that, by name.
func (v *DocumentValidator) ValidateSpecies(ctx context.Context, certNumber, species, speciesCode, userPrincipal, contactID, callingDocumentNumber string) (bool, error) {
	cert, err := v.completedCertificate(ctx, certNumber)
	if err != nil || cert == nil {
		return false, err
	}
	for _, p := range cert.Products {
		if speciesCode != "" && strings.EqualFold(p.SpeciesCode, speciesCode) {
			return true, nil
		}
		if species != "" && strings.EqualFold(strings.TrimSpace(p.Species), strings.TrimSpace(species)) {
			return true, nil
		}
	}
	return false, nil
}

// TotalWeightLanded sums the landed weight of speciesCode across the
// certificate's products.
func (v *DocumentValidator) TotalWeightLanded(ctx context.Context, certNumber, speciesCode string) (float64, bool, error) {
	cert, err := v.completedCertificate(ctx, certNumber)
	if err != nil || cert == nil || speciesCode == "" {
		return 0, false, err
	}
	var total float64
	found := false
	for _, p := range cert.Products {
		if !strings.EqualFold(p.SpeciesCode, speciesCode) {
			continue
		}
		found = true
		for _, l := range p.CaughtBy {
			total += l.Weight
		}
	}
	return total, found, nil
}
