package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/validation"
)

type handlers struct {
	deps steps.Dependencies
}

func transport(fe *FrontEnd) *model.Transport { return &fe.Transport }

// Routes returns the storage document steps in registration order.
func Routes(deps steps.Dependencies) []steps.Route[FrontEnd] {
	h := &handlers{deps: deps}
	routes := []steps.Route[FrontEnd]{
		{Pattern: Prefix + "/add-exporter-details", Handler: steps.ExporterStep(func(fe *FrontEnd) *model.Exporter { return &fe.Exporter })},
		{Pattern: Prefix + "/add-product-to-this-consignment/:catchIndex", Handler: h.product},
		{Pattern: Prefix + "/you-have-added-a-product", Handler: steps.AddAnotherStep(SectionCatches, "addAnotherProduct",
			func(fe *FrontEnd) *string { return &fe.AddAnotherProduct },
			func(fe *FrontEnd) int { return len(fe.Catches) },
			Prefix+"/add-product-to-this-consignment")},
		{Pattern: Prefix + "/add-storage-facility-details/:facilityIndex", Handler: h.facility},
		{Pattern: Prefix + "/you-have-added-a-storage-facility", Handler: steps.AddAnotherStep(SectionFacilities, "addAnotherStorageFacility",
			func(fe *FrontEnd) *string { return &fe.AddAnotherStorageFacility },
			func(fe *FrontEnd) int { return len(fe.Facilities) },
			Prefix+"/add-storage-facility-details")},
		{Pattern: Prefix + "/what-export-destination", Handler: steps.DestinationStep(SectionDestination, func(fe *FrontEnd) **model.Country { return &fe.ExportedTo })},
		{Pattern: Prefix + "/how-does-the-export-leave-the-uk", Handler: steps.VehicleStep(transport)},
	}
	for _, v := range []struct{ slug, vehicle string }{
		{"truck", model.VehicleTruck},
		{"train", model.VehicleTrain},
		{"plane", model.VehiclePlane},
		{"container-vessel", model.VehicleContainerVessel},
	} {
		routes = append(routes, steps.Route[FrontEnd]{
			Pattern: Prefix + "/add-transportation-details-" + v.slug,
			Handler: steps.TransportDetailsStep(v.vehicle, transport),
		})
	}
	return append(routes, steps.Route[FrontEnd]{
		Pattern: Prefix + "/add-your-reference",
		Handler: steps.ReferenceStep(func(fe *FrontEnd) *string { return &fe.UserReference }),
	})
}

func (h *handlers) product(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	i, err := in.EntryIndex("catchIndex", len(in.Data.Catches))
	if err != nil {
		return steps.Output[FrontEnd]{}, err
	}
	data := in.Data
	data.Catches = append([]Catch(nil), data.Catches...)
	if i == len(data.Catches) {
		data.Catches = append(data.Catches, Catch{})
	}
	c := &data.Catches[i]
	for _, p := range []*string{&c.Product, &c.CommodityCode, &c.CertificateNumber, &c.CertificateType,
		&c.ProductWeight, &c.WeightOnCC, &c.PlaceOfUnloading, &c.DateOfUnloading, &c.TransportUnloadedFrom} {
		*p = strings.TrimSpace(*p)
	}
	for _, w := range []*string{&c.ProductWeight, &c.WeightOnCC} {
		if canonical, ok := validation.CanonicalNumber(*w); ok && validation.HasMaxDecimalPlaces(*w, maxWeightDecimals) {
			*w = canonical
		}
	}
	if c.ID == "" {
		var existing []string
		for _, other := range data.Catches {
			existing = append(existing, other.ID)
		}
		c.ID = model.NewEntryIDs(existing...).Next(in.DocumentNumber)
	}

	fieldErrs := CatchErrors(*c, i)
	if err := h.crossCheck(ctx, in.Identity, c, i, fieldErrs); err != nil {
		return steps.Output[FrontEnd]{}, err
	}

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(fieldErrs)
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) crossCheck(ctx context.Context, id steps.Identity, c *Catch, i int, errs model.Errors) error {
	productKey := model.IndexedErrorKey(SectionCatches, i, "product")
	commodityKey := model.IndexedErrorKey(SectionCatches, i, "commodityCode")
	certKey := model.IndexedErrorKey(SectionCatches, i, "certificateNumber")

	if h.deps.Reference != nil {
		if _, failed := errs[productKey]; !failed {
			res, err := h.deps.Reference.ValidateSpeciesName(ctx, c.Product)
			if err != nil {
				return fmt.Errorf("species lookup for product %d: %w", i, err)
			}
			if res.IsError {
				errs.Add(productKey, model.Message("sdAddProductErrorProductInvalid"))
			}
		}
		if _, failed := errs[commodityKey]; !failed {
			res, err := h.deps.Reference.ValidateCommodityCode(ctx, c.CommodityCode)
			if err != nil {
				return fmt.Errorf("commodity code lookup for product %d: %w", i, err)
			}
			if res.IsError {
				errs.Add(commodityKey, model.Message("sdAddProductErrorCommodityCodeInvalid"))
			}
		}
	}

	if _, failed := errs[certKey]; failed || c.CertificateType != CertificateUK || h.deps.Documents == nil {
		return nil
	}
	exists, err := h.deps.Documents.ValidateCompletedDocument(ctx, c.CertificateNumber, id.UserPrincipal, id.ContactID, id.DocumentNumber)
	if err != nil {
		return fmt.Errorf("catch certificate lookup for product %d: %w", i, err)
	}
	if !exists {
		errs.Add(certKey, model.Message("sdAddProductErrorUKCCNumberNotExist"))
		return nil
	}
	if _, failed := errs[productKey]; failed {
		return nil
	}
	ok, err := h.deps.Documents.ValidateSpecies(ctx, c.CertificateNumber, c.Product, c.SpeciesCode, id.UserPrincipal, id.ContactID, id.DocumentNumber)
	if err != nil {
		return fmt.Errorf("catch certificate species lookup for product %d: %w", i, err)
	}
	if !ok {
		errs.Add(certKey, model.Message("sdAddProductErrorUKCCNumberSpeciesNotInCC"))
	}
	return nil
}

func (h *handlers) facility(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	i, err := in.EntryIndex("facilityIndex", len(in.Data.Facilities))
	if err != nil {
		return steps.Output[FrontEnd]{}, err
	}
	data := in.Data
	data.Facilities = append([]Facility(nil), data.Facilities...)
	if i == len(data.Facilities) {
		data.Facilities = append(data.Facilities, Facility{})
	}
	f := &data.Facilities[i]
	for _, p := range []*string{&f.FacilityName, &f.FacilityAddressOne, &f.FacilityTownCity, &f.FacilityPostcode, &f.FacilityArrivalDate} {
		*p = strings.TrimSpace(*p)
	}
	f.FacilityPostcode = strings.ToUpper(f.FacilityPostcode)
	if f.ID == "" {
		var existing []string
		for _, other := range data.Facilities {
			existing = append(existing, other.ID)
		}
		f.ID = model.NewEntryIDs(existing...).Next(in.DocumentNumber)
	}

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(FacilityErrors(*f, i))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}
