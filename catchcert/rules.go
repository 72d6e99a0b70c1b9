package catchcert

import (
	"slices"
	"strconv"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/validation"
)

const (
	SectionExporter         = steps.SectionExporter
	SectionProducts         = "products"
	SectionLandings         = "landings"
	SectionConservation     = "conservation"
	SectionExportJourney    = "exportJourney"
	SectionTransportType    = "transportType"
	SectionTransportDetails = "transportDetails"
)

const (
	maxVesselFieldLength       = 50
	maxConservationLength      = 50
	maxWeightDecimals          = 2
	landingDateMaxFutureDays   = 7
	defaultExportedFromCountry = "United Kingdom"
)

// EntryOptions lists the accepted landings entry options.
func EntryOptions() []string {
	return []string{EntryManual, EntryDirectLanding, EntryUpload}
}

// ProductErrors validates product i without any lookups.
func ProductErrors(p FrontEndProduct, i int) model.Errors {
	errs := model.Errors{}
	key := func(field string) string { return model.IndexedErrorKey(SectionProducts, i, field) }

	if validation.IsBlank(p.Species) {
		errs.Add(key("species"), model.Message("ccWhatAreYouExportingErrorSpeciesRequired"))
	}
	if p.State == nil || validation.IsBlank(p.State.Value) {
		errs.Add(key("state"), model.Message("ccWhatAreYouExportingErrorStateRequired"))
	}
	if p.Presentation == nil || validation.IsBlank(p.Presentation.Value) {
		errs.Add(key("presentation"), model.Message("ccWhatAreYouExportingErrorPresentationRequired"))
	}
	switch {
	case validation.IsBlank(p.CommodityCode):
		errs.Add(key("commodityCode"), model.Message("ccWhatAreYouExportingErrorCommodityCodeRequired"))
	case !validation.IsCommodityCode(p.CommodityCode):
		errs.Add(key("commodityCode"), model.Message("ccWhatAreYouExportingErrorCommodityCodeInvalid"))
	}
	return errs
}

// ProductsErrors validates the whole product list.
func ProductsErrors(products []FrontEndProduct) model.Errors {
	errs := model.Errors{}
	if len(products) == 0 {
		errs.Add(model.ErrorKey(SectionProducts, "products"), model.Message("ccWhatAreYouExportingErrorAtLeastOneProduct"))
	}
	for i, p := range products {
		errs.Merge(ProductErrors(p, i))
	}
	return errs
}

// LandingErrors validates the landings of product i. Keys carry the product
// index; the landing index is appended to the field name.
func LandingErrors(p FrontEndProduct, i int, now time.Time) model.Errors {
	errs := model.Errors{}
	if len(p.Landings) == 0 {
		errs.Add(model.IndexedErrorKey(SectionLandings, i, "landings"), model.Message("ccAddLandingErrorAtLeastOneLanding"))
		return errs
	}
	for j, l := range p.Landings {
		key := func(field string) string {
			return model.IndexedErrorKey(SectionLandings, i, field+"-"+strconv.Itoa(j))
		}
		switch {
		case validation.IsBlank(l.Vessel):
			errs.Add(key("vessel"), model.Message("ccAddLandingErrorVesselRequired"))
		case !validation.MaxLength(l.Vessel, maxVesselFieldLength) || !validation.IsFreeText(l.Vessel):
			errs.Add(key("vessel"), model.Message("ccAddLandingErrorVesselInvalid"))
		}
		if validation.IsBlank(l.PLN) {
			errs.Add(key("pln"), model.Message("ccAddLandingErrorPlnRequired"))
		}
		if validation.IsBlank(l.DateLanded) {
			errs.Add(key("dateLanded"), model.Message("ccAddLandingErrorDateLandedRequired"))
		} else {
			switch validation.CheckDateWithinDays(l.DateLanded, now, landingDateMaxFutureDays) {
			case validation.DateInvalidFormat:
				errs.Add(key("dateLanded"), model.Message("ccAddLandingErrorDateLandedInvalid"))
			case validation.DateTooFarInFuture:
				errs.Add(key("dateLanded"), model.Message("ccAddLandingErrorDateLandedFuture"))
			}
		}
		switch {
		case validation.IsBlank(l.FaoArea):
			errs.Add(key("faoArea"), model.Message("ccAddLandingErrorFaoAreaRequired"))
		case !validation.IsFAOArea(l.FaoArea):
			errs.Add(key("faoArea"), model.Message("ccAddLandingErrorFaoAreaInvalid"))
		}
		switch {
		case validation.IsBlank(l.ExportWeight):
			errs.Add(key("exportWeight"), model.Message("ccAddLandingErrorExportWeightRequired"))
		case !validation.IsPositiveNumber(l.ExportWeight):
			errs.Add(key("exportWeight"), model.Message("ccAddLandingErrorExportWeightInvalid"))
		case !validation.HasMaxDecimalPlaces(l.ExportWeight, maxWeightDecimals):
			errs.Add(key("exportWeight"), model.Message("ccAddLandingErrorExportWeightDecimalPlaces"))
		}
	}
	return errs
}

// EntryOptionErrors checks the landings entry option.
func EntryOptionErrors(option string) model.Errors {
	errs := model.Errors{}
	key := model.ErrorKey(SectionLandings, "landingsEntryOption")
	switch {
	case option == "":
		errs.Add(key, model.Message("ccLandingsEntryErrorOptionRequired"))
	case !slices.Contains(EntryOptions(), option):
		errs.Add(key, model.Message("ccLandingsEntryErrorOptionInvalid"))
	}
	return errs
}

// ConservationErrors validates the conservation page.
func ConservationErrors(c Conservation) model.Errors {
	errs := model.Errors{}
	key := model.ErrorKey(SectionConservation, "conservationReference")
	switch {
	case validation.IsBlank(c.ConservationReference):
		errs.Add(key, model.Message("ccAddConservationErrorReferenceRequired"))
	case !validation.MaxLength(c.ConservationReference, maxConservationLength) || !validation.IsFreeText(c.ConservationReference):
		errs.Add(key, model.Message("ccAddConservationErrorReferenceInvalid"))
	}
	return errs
}
