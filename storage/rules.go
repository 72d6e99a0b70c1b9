package storage

import (
	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/validation"
)

const (
	SectionExporter         = steps.SectionExporter
	SectionCatches          = "catches"
	SectionFacilities       = "storageFacilities"
	SectionDestination      = "exportDestination"
	SectionTransportType    = "transportType"
	SectionTransportDetails = "transportDetails"
)

const (
	maxCertificateLength = 54
	maxFieldLength       = 50
	maxFacilityLength    = 100
	maxWeightDecimals    = 2
)

// CatchErrors applies every rule to product i that needs no lookup.
func CatchErrors(c Catch, i int) model.Errors {
	errs := model.Errors{}
	key := func(field string) string { return model.IndexedErrorKey(SectionCatches, i, field) }

	if validation.IsBlank(c.Product) {
		errs.Add(key("product"), model.Message("sdAddProductErrorProductRequired"))
	}
	switch {
	case validation.IsBlank(c.CommodityCode):
		errs.Add(key("commodityCode"), model.Message("sdAddProductErrorCommodityCodeRequired"))
	case !validation.IsCommodityCode(c.CommodityCode):
		errs.Add(key("commodityCode"), model.Message("sdAddProductErrorCommodityCodeInvalid"))
	}

	switch c.CertificateType {
	case CertificateUK, CertificateNonUK:
	case "":
		errs.Add(key("certificateType"), model.Message("sdAddProductErrorCertificateTypeRequired"))
	default:
		errs.Add(key("certificateType"), model.Message("sdAddProductErrorCertificateTypeInvalid"))
	}
	switch {
	case validation.IsBlank(c.CertificateNumber):
		errs.Add(key("certificateNumber"), model.Message("sdAddProductErrorCertificateNumberRequired"))
	case !validation.IsAlphanumericWithHyphens(c.CertificateNumber):
		errs.Add(key("certificateNumber"), model.Message("sdAddProductErrorCertificateNumberCharactersInvalid"))
	case c.CertificateType == CertificateUK && !validation.IsCatchCertificateNumber(c.CertificateNumber):
		errs.Add(key("certificateNumber"), model.Message("sdAddProductErrorUKCCNumberFormatInvalid"))
	case !validation.MaxLength(c.CertificateNumber, maxCertificateLength):
		errs.Add(key("certificateNumber"), model.Message("sdAddProductErrorCertificateNumberMax"))
	}

	productWeight := weightError(c.ProductWeight, "ProductWeight")
	weightOnCC := weightError(c.WeightOnCC, "WeightOnCC")
	if productWeight != "" {
		errs.Add(key("productWeight"), model.Message(productWeight))
	}
	if weightOnCC != "" {
		errs.Add(key("weightOnCC"), model.Message(weightOnCC))
	}
	if productWeight == "" && weightOnCC == "" {
		p, _ := validation.ParseNumber(c.ProductWeight)
		w, _ := validation.ParseNumber(c.WeightOnCC)
		if p > w {
			errs.Add(key("productWeight"), model.Message("sdAddProductErrorProductWeightExceedsWeightOnCC"))
		}
	}

	for _, f := range []struct{ field, value, name string }{
		{"placeOfUnloading", c.PlaceOfUnloading, "PlaceOfUnloading"},
		{"transportUnloadedFrom", c.TransportUnloadedFrom, "TransportUnloadedFrom"},
	} {
		switch {
		case validation.IsBlank(f.value):
			errs.Add(key(f.field), model.Message("sdAddProductError"+f.name+"Required"))
		case !validation.MaxLength(f.value, maxFieldLength) || !validation.IsFreeText(f.value):
			errs.Add(key(f.field), model.Message("sdAddProductError"+f.name+"Invalid"))
		}
	}
	if msg := dateError(c.DateOfUnloading, "sdAddProductErrorDateOfUnloading"); msg != "" {
		errs.Add(key("dateOfUnloading"), model.Message(msg))
	}
	return errs
}

func weightError(w, name string) string {
	switch {
	case validation.IsBlank(w):
		return "sdAddProductError" + name + "Required"
	case !validation.IsPositiveNumber(w):
		return "sdAddProductError" + name + "Invalid"
	case !validation.HasMaxDecimalPlaces(w, maxWeightDecimals):
		return "sdAddProductError" + name + "DecimalPlaces"
	}
	return ""
}

func dateError(d, prefix string) string {
	if validation.IsBlank(d) {
		return prefix + "Required"
	}
	if _, ok := validation.ParseDate(d); !ok {
		return prefix + "Invalid"
	}
	return ""
}

// FacilityErrors validates storage facility i.
func FacilityErrors(f Facility, i int) model.Errors {
	errs := model.Errors{}
	key := func(field string) string { return model.IndexedErrorKey(SectionFacilities, i, field) }

	switch {
	case validation.IsBlank(f.FacilityName):
		errs.Add(key("facilityName"), model.Message("sdAddStorageFacilityErrorNameRequired"))
	case !validation.MaxLength(f.FacilityName, maxFacilityLength):
		errs.Add(key("facilityName"), model.Message("sdAddStorageFacilityErrorNameMax"))
	}
	if validation.IsBlank(f.FacilityAddressOne) {
		errs.Add(key("facilityAddressOne"), model.Message("sdAddStorageFacilityErrorAddressOneRequired"))
	}
	if validation.IsBlank(f.FacilityTownCity) {
		errs.Add(key("facilityTownCity"), model.Message("sdAddStorageFacilityErrorTownCityRequired"))
	}
	switch {
	case validation.IsBlank(f.FacilityPostcode):
		errs.Add(key("facilityPostcode"), model.Message("sdAddStorageFacilityErrorPostcodeRequired"))
	case !validation.IsUKPostcode(f.FacilityPostcode):
		errs.Add(key("facilityPostcode"), model.Message("sdAddStorageFacilityErrorPostcodeInvalid"))
	}
	if f.FacilityArrivalDate != "" {
		if _, ok := validation.ParseDate(f.FacilityArrivalDate); !ok {
			errs.Add(key("facilityArrivalDate"), model.Message("sdAddStorageFacilityErrorArrivalDateInvalid"))
		}
	}
	return errs
}
