package catchcert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/validation"
)

// CheckYourInformation is where a truck covered by a CMR skips to.
const CheckYourInformation = Prefix + "/check-your-information"

type handlers struct {
	deps steps.Dependencies
	now  func() time.Time
}

func transport(fe *FrontEnd) *model.Transport { return &fe.Transport }

// Routes returns the catch certificate steps in registration order.
func Routes(deps steps.Dependencies, now func() time.Time) []steps.Route[FrontEnd] {
	if now == nil {
		now = time.Now
	}
	h := &handlers{deps: deps, now: now}
	routes := []steps.Route[FrontEnd]{
		{Pattern: Prefix + "/add-exporter-details", Handler: steps.ExporterStep(func(fe *FrontEnd) *model.Exporter { return &fe.Exporter })},
		{Pattern: Prefix + "/what-are-you-exporting", Handler: h.products},
		{Pattern: Prefix + "/landings-entry", Handler: h.entryOption},
		{Pattern: Prefix + "/add-landings", Handler: h.landings},
		{Pattern: Prefix + "/direct-landing", Handler: h.directLanding},
		{Pattern: Prefix + "/add-conservation", Handler: h.conservation},
		{Pattern: Prefix + "/add-export-destination", Handler: h.destination},
		{Pattern: Prefix + "/how-does-the-export-leave-the-uk", Handler: steps.VehicleStep(transport)},
		{Pattern: Prefix + "/do-you-have-a-road-transport-document", Handler: steps.CMRStep(transport, CheckYourInformation)},
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

func cloneProducts(products []FrontEndProduct) []FrontEndProduct {
	out := make([]FrontEndProduct, len(products))
	for i, p := range products {
		p.Landings = append([]FrontEndLanding(nil), p.Landings...)
		out[i] = p
	}
	return out
}

func (h *handlers) products(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.Products = cloneProducts(data.Products)
	for i := range data.Products {
		p := &data.Products[i]
		p.Species = strings.TrimSpace(p.Species)
		p.CommodityCode = strings.TrimSpace(p.CommodityCode)
	}

	productErrs := ProductsErrors(data.Products)
	for i := range data.Products {
		if err := h.lookupProduct(ctx, &data.Products[i], i, productErrs); err != nil {
			return steps.Output[FrontEnd]{}, err
		}
	}
	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(productErrs)

	out := steps.Output[FrontEnd]{Errors: errs}
	// Adding another product redisplays the page once the current list is valid.
	if strings.EqualFold(strings.TrimSpace(data.AddAnotherProduct), "yes") && len(productErrs) == 0 {
		out.Next = in.URL(Prefix + "/what-are-you-exporting")
	}
	data.AddAnotherProduct = ""
	out.Data = data
	return out, nil
}

func (h *handlers) lookupProduct(ctx context.Context, p *FrontEndProduct, i int, errs model.Errors) error {
	if h.deps.Reference == nil {
		return nil
	}
	speciesKey := model.IndexedErrorKey(SectionProducts, i, "species")
	if _, failed := errs[speciesKey]; !failed {
		res, err := h.deps.Reference.ValidateSpeciesWithSuggestions(ctx, p.Species)
		if err != nil {
			return fmt.Errorf("species lookup for product %d: %w", i, err)
		}
		if res.IsError {
			p.Species = ""
			p.SpeciesCode = ""
			p.ScientificName = ""
			if len(res.ResultList) > 0 {
				errs.Add(speciesKey, model.Suggestion("ccWhatAreYouExportingErrorSpeciesSuggestion", res.ResultList))
			} else {
				errs.Add(speciesKey, model.Message("ccWhatAreYouExportingErrorSpeciesInvalid"))
			}
		}
	}
	commodityKey := model.IndexedErrorKey(SectionProducts, i, "commodityCode")
	if _, failed := errs[commodityKey]; !failed {
		res, err := h.deps.Reference.ValidateCommodityCode(ctx, p.CommodityCode)
		if err != nil {
			return fmt.Errorf("commodity code lookup for product %d: %w", i, err)
		}
		if res.IsError {
			errs.Add(commodityKey, model.Message("ccWhatAreYouExportingErrorCommodityCodeInvalid"))
		}
	}
	return nil
}

func (h *handlers) entryOption(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.LandingsEntryOption = strings.TrimSpace(data.LandingsEntryOption)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(EntryOptionErrors(data.LandingsEntryOption))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func normaliseLanding(l *FrontEndLanding) {
	for _, p := range []*string{&l.Vessel, &l.PLN, &l.DateLanded, &l.FaoArea, &l.ExportWeight} {
		*p = strings.TrimSpace(*p)
	}
	l.PLN = strings.ToUpper(l.PLN)
	l.FaoArea = strings.ToUpper(l.FaoArea)
	if canonical, ok := validation.CanonicalNumber(l.ExportWeight); ok && validation.HasMaxDecimalPlaces(l.ExportWeight, maxWeightDecimals) {
		l.ExportWeight = canonical
	}
}

func (h *handlers) landings(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.Products = cloneProducts(data.Products)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	if len(data.Products) == 0 {
		errs.Add(model.ErrorKey(SectionProducts, "products"), model.Message("ccWhatAreYouExportingErrorAtLeastOneProduct"))
	}
	now := h.now()
	for i := range data.Products {
		for j := range data.Products[i].Landings {
			normaliseLanding(&data.Products[i].Landings[j])
		}
		errs.Merge(LandingErrors(data.Products[i], i, now))
	}
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

// directLanding records one landing shared by every product: the vessel and
// landing details of the first product are copied to the others, weights stay
// per product.
func (h *handlers) directLanding(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.Products = cloneProducts(data.Products)

	errs := model.Errors{}
	errs.Merge(in.Errors)
	if data.LandingsEntryOption != EntryDirectLanding {
		errs.Add(model.ErrorKey(SectionLandings, "landingsEntryOption"), model.Message("ccDirectLandingErrorWrongEntryOption"))
		return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
	}
	if len(data.Products) == 0 {
		errs.Add(model.ErrorKey(SectionProducts, "products"), model.Message("ccWhatAreYouExportingErrorAtLeastOneProduct"))
		return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
	}

	var shared FrontEndLanding
	if len(data.Products[0].Landings) > 0 {
		shared = data.Products[0].Landings[0]
		normaliseLanding(&shared)
	}
	now := h.now()
	for i := range data.Products {
		p := &data.Products[i]
		l := FrontEndLanding{}
		if len(p.Landings) > 0 {
			l = p.Landings[0]
		}
		l.Vessel, l.PLN, l.DateLanded, l.FaoArea = shared.Vessel, shared.PLN, shared.DateLanded, shared.FaoArea
		normaliseLanding(&l)
		p.Landings = []FrontEndLanding{l}
		errs.Merge(LandingErrors(*p, i, now))
	}
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) conservation(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	data := in.Data
	data.Conservation.ConservationReference = strings.TrimSpace(data.Conservation.ConservationReference)
	var legislation []string
	for _, l := range data.Conservation.Legislation {
		if l = strings.TrimSpace(l); l != "" {
			legislation = append(legislation, l)
		}
	}
	data.Conservation.Legislation = legislation

	errs := model.Errors{}
	errs.Merge(in.Errors)
	errs.Merge(ConservationErrors(data.Conservation))
	return steps.Output[FrontEnd]{Data: data, Errors: errs}, nil
}

func (h *handlers) destination(ctx context.Context, in steps.Input[FrontEnd]) (steps.Output[FrontEnd], error) {
	out, err := steps.DestinationStep(SectionExportJourney, func(fe *FrontEnd) **model.Country { return &fe.Transport.ExportedTo })(ctx, in)
	if err != nil {
		return out, err
	}
	out.Data.Transport.ExportedFrom = strings.TrimSpace(out.Data.Transport.ExportedFrom)
	if out.Data.Transport.ExportedFrom == "" {
		out.Data.Transport.ExportedFrom = defaultExportedFromCountry
	}
	return out, nil
}
