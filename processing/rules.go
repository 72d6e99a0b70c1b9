package processing

import (
	"strings"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/validation"
)

// Sections, also used as error key prefixes.
const (
	SectionExporter          = "exporter"
	SectionConsignment       = "consignmentDescription"
	SectionCatches           = "catches"
	SectionPlant             = "processingPlant"
	SectionPlantAddress      = "processingPlantAddress"
	SectionHealthCertificate = "exportHealthCertificate"
	SectionDestination       = "exportDestination"
)

const (
	maxConsignmentLength        = 250
	maxNonUKCertificateLength   = 54
	maxPlantFieldLength         = 100
	maxPointOfDestinationLength = 100
	maxWeightDecimals           = 2
	healthCertificateMaxDays    = 8
)

// ConsignmentErrors validates the consignment description.
func ConsignmentErrors(description string) model.Errors {
	errs := model.Errors{}
	key := model.ErrorKey(SectionConsignment, "consignmentDescription")
	switch {
	case validation.IsBlank(description):
		errs.Add(key, model.Message("psConsignmentDescriptionErrorRequired"))
	case !validation.MaxLength(description, maxConsignmentLength):
		errs.Add(key, model.Message("psConsignmentDescriptionErrorMax"))
	}
	return errs
}

// CatchErrors applies every rule to catch i that needs no lookup. Certificate
// existence and species membership are checked by the step handler once these
// pass.
func CatchErrors(c Catch, i int) model.Errors {
	errs := model.Errors{}
	key := func(field string) string { return model.IndexedErrorKey(SectionCatches, i, field) }

	if validation.IsBlank(c.Species) {
		errs.Add(key("species"), model.Message("psAddCatchDetailsErrorEnterSpecies"))
	}

	switch c.CatchCertificateType {
	case CertificateUK:
		if msg := ukCertificateNumberError(c.CatchCertificateNumber); msg != "" {
			errs.Add(key("catchCertificateNumber"), model.Message(msg))
		}
	case CertificateNonUK:
		if msg := nonUKCertificateNumberError(c.CatchCertificateNumber); msg != "" {
			errs.Add(key("catchCertificateNumber"), model.Message(msg))
		}
	case "":
		errs.Add(key("catchCertificateType"), model.Message("psAddCatchDetailsErrorCatchCertificateTypeRequired"))
	default:
		errs.Add(key("catchCertificateType"), model.Message("psAddCatchDetailsErrorCatchCertificateTypeInvalid"))
	}

	if msg := weightError(c.ExportWeightBeforeProcessing, "WeightBeforeProcessing"); msg != "" {
		errs.Add(key("exportWeightBeforeProcessing"), model.Message(msg))
	} else if exceedsLanded(c) {
		errs.Add(key("exportWeightBeforeProcessing"), model.Message("psAddCatchDetailsErrorWeightBeforeProcessingExceedsLanded"))
	}
	if msg := weightError(c.ExportWeightAfterProcessing, "WeightAfterProcessing"); msg != "" {
		errs.Add(key("exportWeightAfterProcessing"), model.Message(msg))
	}
	return errs
}

func ukCertificateNumberError(n string) string {
	switch {
	case validation.IsBlank(n):
		return "psAddCatchDetailsErrorEnterUKCCNumber"
	case !validation.IsAlphanumericWithHyphens(n):
		return "psAddCatchDetailsErrorUKCCNumberCharactersInvalid"
	case !validation.IsCatchCertificateNumber(n):
		return "psAddCatchDetailsErrorUKCCNumberFormatInvalid"
	}
	return ""
}

func nonUKCertificateNumberError(n string) string {
	switch {
	case validation.IsBlank(n):
		return "psAddCatchDetailsErrorEnterNonUKCCNumber"
	case !validation.IsAlphanumericWithHyphens(n):
		return "psAddCatchDetailsErrorNonUKCCNumberCharactersInvalid"
	case !validation.MaxLength(n, maxNonUKCertificateLength):
		return "psAddCatchDetailsErrorNonUKCCNumberMax"
	}
	return ""
}

func weightError(w, name string) string {
	switch {
	case validation.IsBlank(w):
		return "psAddCatchDetailsErrorEnter" + name
	case !validation.IsPositiveNumber(w):
		return "psAddCatchDetailsError" + name + "Invalid"
	case !validation.HasMaxDecimalPlaces(w, maxWeightDecimals):
		return "psAddCatchDetailsError" + name + "DecimalPlaces"
	}
	return ""
}

func exceedsLanded(c Catch) bool {
	if c.CatchCertificateType != CertificateUK || c.TotalWeightLanded == "" {
		return false
	}
	landed, ok := validation.ParseNumber(c.TotalWeightLanded)
	if !ok {
		return false
	}
	before, ok := validation.ParseNumber(c.ExportWeightBeforeProcessing)
	return ok && before > landed
}

// PlantErrors validates the processing plant details page.
func PlantErrors(fe FrontEnd) model.Errors {
	errs := model.Errors{}
	for _, f := range []struct {
		field, value, required string
	}{
		{"personResponsibleForConsignment", fe.PersonResponsibleForConsignment, "psProcessingPlantErrorPersonResponsibleRequired"},
		{"plantApprovalNumber", fe.PlantApprovalNumber, "psProcessingPlantErrorApprovalNumberRequired"},
		{"plantName", fe.PlantName, "psProcessingPlantErrorPlantNameRequired"},
	} {
		key := model.ErrorKey(SectionPlant, f.field)
		switch {
		case validation.IsBlank(f.value):
			errs.Add(key, model.Message(f.required))
		case !validation.MaxLength(f.value, maxPlantFieldLength):
			errs.Add(key, model.Message("psProcessingPlantError"+upperFirst(f.field)+"Max"))
		case !validation.IsFreeText(f.value):
			errs.Add(key, model.Message("psProcessingPlantError"+upperFirst(f.field)+"Invalid"))
		}
	}
	return errs
}

// PlantAddressErrors validates the processing plant address.
func PlantAddressErrors(a PlantAddress) model.Errors {
	errs := model.Errors{}
	if validation.IsBlank(a.AddressOne) {
		errs.Add(model.ErrorKey(SectionPlantAddress, "addressOne"), model.Message("psPlantAddressErrorAddressOneRequired"))
	}
	if validation.IsBlank(a.TownCity) {
		errs.Add(model.ErrorKey(SectionPlantAddress, "townCity"), model.Message("psPlantAddressErrorTownCityRequired"))
	}
	key := model.ErrorKey(SectionPlantAddress, "postcode")
	switch {
	case validation.IsBlank(a.Postcode):
		errs.Add(key, model.Message("psPlantAddressErrorPostcodeRequired"))
	case !validation.IsUKPostcode(a.Postcode):
		errs.Add(key, model.Message("psPlantAddressErrorPostcodeInvalid"))
	}
	return errs
}

// HealthCertificateErrors validates the export health certificate. A date is
// checked for format before it is checked against the future limit.
func HealthCertificateErrors(number, date string, now time.Time) model.Errors {
	errs := model.Errors{}
	numberKey := model.ErrorKey(SectionHealthCertificate, "healthCertificateNumber")
	switch {
	case validation.IsBlank(number):
		errs.Add(numberKey, model.Message("psExportHealthCertificateErrorNumberRequired"))
	case !validation.IsHealthCertificateNumber(number):
		errs.Add(numberKey, model.Message("psExportHealthCertificateErrorNumberFormat"))
	}

	dateKey := model.ErrorKey(SectionHealthCertificate, "healthCertificateDate")
	if validation.IsBlank(date) {
		errs.Add(dateKey, model.Message("psExportHealthCertificateErrorDateRequired"))
		return errs
	}
	switch validation.CheckDateWithinDays(date, now, healthCertificateMaxDays) {
	case validation.DateInvalidFormat:
		errs.Add(dateKey, model.Message("psExportHealthCertificateErrorDateFormat"))
	case validation.DateTooFarInFuture:
		errs.Add(dateKey, model.Message("psExportHealthCertificateErrorMaxFutureDate"))
	}
	return errs
}

// DestinationErrors validates the export destination page.
func DestinationErrors(fe FrontEnd) model.Errors {
	errs := model.Errors{}
	if fe.ExportedTo.Name() == "" {
		errs.Add(model.ErrorKey(SectionDestination, "exportedTo"), model.Message("psWhatExportDestinationErrorRequired"))
	}
	if !validation.MaxLength(fe.PointOfDestination, maxPointOfDestinationLength) {
		errs.Add(model.ErrorKey(SectionDestination, "pointOfDestination"), model.Message("psWhatExportDestinationErrorPointOfDestinationMax"))
	}
	return errs
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
