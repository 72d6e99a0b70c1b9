package processing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/validation"
)

type handlers struct {
	deps steps.Dependencies
	now  func() time.Time
}

// Routes returns the processing statement steps in registration order.
func Routes(deps steps.Dependencies, now func() time.Time) []steps.Route[FrontEnd] {
	if now == nil {
		now = time.Now
	}
	h := &handlers{deps: deps, now: now}
	return []steps.Route[FrontEnd]{
		{Pattern: Prefix + "/add-exporter-details", Handler: steps.ExporterStep(func(fe *FrontEnd) *model.Exporter { return &fe.Exporter })},
		{Pattern: Prefix + "/add-consignment-details", Handler: h.consignment},
		{Pattern: Prefix + "/add-catch-details", Handler: h.allCatches},
		{Pattern: Prefix + "/add-catch-details/:catchIndex", Handler: h.catch},
		{Pattern: Prefix + "/catch-added", Handler: steps.AddAnotherStep(SectionCatches, "addAnotherCatch",
			func(fe *FrontEnd) *string { return &fe.AddAnotherCatch },
			func(fe *FrontEnd) int { return len(fe.Catches) },
			Prefix+"/add-catch-details")},
		{Pattern: Prefix + "/add-processing-plant-details", Handler: h.plant},
		{Pattern: Prefix + "/add-processing-plant-address", Handler: h.plantAddress},
		{Pattern: Prefix + "/add-health-certificate", Handler: h.healthCertificate},
		{Pattern: Prefix + "/what-export-destination", Handler: h.destination},
		{Pattern: Prefix + "/add-your-reference", Handler: steps.ReferenceStep(func(fe *FrontEnd) *string { return &fe.UserReference })},
	}
}

func (h *handlers) consignment(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.ConsignmentDescription = strings.TrimSpace(data.ConsignmentDescription)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(ConsignmentErrors(data.ConsignmentDescription))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) catch(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	i, err := in.EntryIndex("catchIndex", len(in.Data.Catches))
	if err != nil {
		return steps.Output[FrontEnd]{}, err
	}
	data := in.Data
	data.Catches = append([]Catch(nil), data.Catches...)
	if i == len(data.Catches) {
		data.Catches = append(data.Catches, Catch{})
	}

	errs := model.Errors{}
	errs.Merge(in.Errors)
	ids := existingIDs(data.Catches)
	if err := h.checkCatch(ctx, in.Identity, &data.Catches[i], i, ids, errs); err != nil {
		return steps.Output[FrontEnd]{}, err
	}
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) allCatches(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.Catches = append([]Catch(nil), data.Catches...)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	if len(data.Catches) == 0 {
		errs.Add(model.ErrorKey(SectionCatches, "catches"), model.Message("psAddCatchDetailsErrorAtLeastOneCatch"))
	}
	ids := existingIDs(data.Catches)
	for i := range data.Catches {
		if err := h.checkCatch(ctx, in.Identity, &data.Catches[i], i, ids, errs); err != nil {
			return steps.Output[FrontEnd]{}, err
		}
	}
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func existingIDs(catches []Catch) *model.EntryIDs {
	ids := make([]string, 0, len(catches))
	for _, c := range catches {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	return model.NewEntryIDs(ids...)
}

// checkCatch normalises catch i and validates it: field rules first, then the
// species lookup, then the cited certificate's existence and species.
func (h *handlers) checkCatch(ctx context.Context, id steps.Identity, c *Catch, i int, ids *model.EntryIDs, errs model.Errors) error {
	c.Species = strings.TrimSpace(c.Species)
	c.CatchCertificateNumber = strings.TrimSpace(c.CatchCertificateNumber)
	c.CatchCertificateType = strings.TrimSpace(c.CatchCertificateType)
	for _, w := range []*string{&c.ExportWeightBeforeProcessing, &c.ExportWeightAfterProcessing} {
		*w = strings.TrimSpace(*w)
		if canonical, ok := validation.CanonicalNumber(*w); ok && validation.HasMaxDecimalPlaces(*w, maxWeightDecimals) {
			*w = canonical
		}
	}
	if c.ID == "" {
		c.ID = ids.Next(id.DocumentNumber)
	}

	fieldErrs := CatchErrors(*c, i)
	speciesKey := model.IndexedErrorKey(SectionCatches, i, "species")
	certKey := model.IndexedErrorKey(SectionCatches, i, "catchCertificateNumber")

	if _, failed := fieldErrs[speciesKey]; !failed && h.deps.Reference != nil {
		res, err := h.deps.Reference.ValidateSpeciesWithSuggestions(ctx, c.Species)
		if err != nil {
			return fmt.Errorf("species lookup for catch %d: %w", i, err)
		}
		if res.IsError {
			c.Species = ""
			c.SpeciesCode = ""
			c.ScientificName = ""
			if len(res.ResultList) > 0 {
				fieldErrs.Add(speciesKey, model.Suggestion("psAddCatchDetailsErrorSpeciesSuggestion", res.ResultList))
			} else {
				fieldErrs.Add(speciesKey, model.Message("psAddCatchDetailsErrorSpeciesInvalid"))
			}
		}
	}

	_, certFailed := fieldErrs[certKey]
	if c.CatchCertificateType == CertificateUK && !certFailed && h.deps.Documents != nil {
		exists, err := h.deps.Documents.ValidateCompletedDocument(ctx, c.CatchCertificateNumber, id.UserPrincipal, id.ContactID, id.DocumentNumber)
		if err != nil {
			return fmt.Errorf("catch certificate lookup for catch %d: %w", i, err)
		}
		if !exists {
			fieldErrs.Add(certKey, model.Message("psAddCatchDetailsErrorUKCCNumberNotExist"))
		} else if _, speciesFailed := fieldErrs[speciesKey]; !speciesFailed {
			ok, err := h.deps.Documents.ValidateSpecies(ctx, c.CatchCertificateNumber, c.Species, c.SpeciesCode, id.UserPrincipal, id.ContactID, id.DocumentNumber)
			if err != nil {
				return fmt.Errorf("catch certificate species lookup for catch %d: %w", i, err)
			}
			if !ok {
				fieldErrs.Add(certKey, model.Message("psAddCatchDetailsErrorUKCCNumberSpeciesNotInCC"))
			}
		}
	}
	errs.Merge(fieldErrs)
	return nil
}

func (h *handlers) plant(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	for _, p := range []*string{&data.PersonResponsibleForConsignment, &data.PlantApprovalNumber, &data.PlantName} {
		*p = strings.TrimSpace(*p)
	}

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(PlantErrors(data))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) plantAddress(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	a := &data.PlantAddress
	for _, p := range []*string{&a.AddressOne, &a.BuildingName, &a.BuildingNumber, &a.StreetName, &a.TownCity, &a.Postcode} {
		*p = strings.TrimSpace(*p)
	}
	a.Postcode = strings.ToUpper(a.Postcode)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(PlantAddressErrors(*a))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) healthCertificate(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.HealthCertificateNumber = strings.TrimSpace(data.HealthCertificateNumber)
	data.HealthCertificateDate = strings.TrimSpace(data.HealthCertificateDate)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(HealthCertificateErrors(data.HealthCertificateNumber, data.HealthCertificateDate, h.now()))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) destination(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	if data.ExportedTo != nil {
		c := *data.ExportedTo
		c.OfficialCountryName = strings.TrimSpace(c.OfficialCountryName)
		data.ExportedTo = &c
	}
	data.PointOfDestination = strings.TrimSpace(data.PointOfDestination)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(DestinationErrors(data))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}
