package steps

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/validation"
)

// Error key sections written by the shared handlers.
const (
	SectionExporter  = "exporter"
	SectionTransport = "transport"
	SectionReference = "reference"
)

const (
	maxNameLength      = 100
	maxReferenceLength = 50
	maxTransportLength = 50
)

var exporterRequired = []string{"exporterFullName", "exporterCompanyName", "addressOne", "postcode"}

func exporterValue(e model.Exporter, field string) string {
	switch field {
	case "exporterFullName":
		return e.ExporterFullName
	case "exporterCompanyName":
		return e.ExporterCompanyName
	case "addressOne":
		return e.AddressOne
	case "postcode":
		return e.Postcode
	}
	return ""
}

// ExporterErrors is the exporter rule set used by the exporter step and by
// progress: the section is complete exactly when this returns no errors.
func ExporterErrors(e model.Exporter) model.Errors {
	errs := model.Errors{}
	for _, field := range exporterRequired {
		if validation.IsBlank(exporterValue(e, field)) {
			errs.Add(model.ErrorKey(SectionExporter, field), model.Message("error."+field+".required"))
		}
	}
	if !validation.MaxLength(e.ExporterFullName, maxNameLength) {
		errs.Add(model.ErrorKey(SectionExporter, "exporterFullName"), model.Message("error.exporterFullName.max"))
	}
	if !validation.MaxLength(e.ExporterCompanyName, maxNameLength) {
		errs.Add(model.ErrorKey(SectionExporter, "exporterCompanyName"), model.Message("error.exporterCompanyName.max"))
	}
	return errs
}

func trimExporter(e *model.Exporter) {
	for _, p := range []*string{
		&e.ExporterFullName, &e.ExporterCompanyName, &e.AddressOne, &e.BuildingNumber, &e.SubBuildingName,
		&e.BuildingName, &e.StreetName, &e.County, &e.Country, &e.TownCity, &e.Postcode,
	} {
		*p = strings.TrimSpace(*p)
	}
	e.Postcode = strings.ToUpper(e.Postcode)
}

// ExporterStep validates the exporter details reached through exporter.
func ExporterStep[F any](exporter func(*F) *model.Exporter) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		e := exporter(&data)
		trimExporter(e)

		errs := collect(in.Errors)
		errs.Merge(ExporterErrors(*e))
		return Output[F]{Data: data, Errors: errs}, nil
	}
}

// ReferenceErrors validates the optional user reference.
func ReferenceErrors(ref string) model.Errors {
	errs := model.Errors{}
	switch {
	case !validation.MaxLength(ref, maxReferenceLength):
		errs.Add(model.ErrorKey(SectionReference, "userReference"), model.Message("error.userReference.max"))
	case !validation.IsFreeText(ref):
		errs.Add(model.ErrorKey(SectionReference, "userReference"), model.Message("error.userReference.invalid"))
	}
	return errs
}

// ReferenceStep validates the free-text user reference.
func ReferenceStep[F any](reference func(*F) *string) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		ref := reference(&data)
		*ref = strings.TrimSpace(*ref)

		errs := collect(in.Errors)
		errs.Merge(ReferenceErrors(*ref))
		return Output[F]{Data: data, Errors: errs}, nil
	}
}

var vehicleFields = map[string][]string{
	model.VehicleTruck:           {"nationalityOfVehicle", "registrationNumber", "departurePlace"},
	model.VehicleTrain:           {"railwayBillNumber", "departurePlace"},
	model.VehiclePlane:           {"flightNumber", "containerNumber", "departurePlace"},
	model.VehicleContainerVessel: {"vesselName", "flagState", "containerNumber", "departurePlace"},
	model.VehicleFishingVessel:   {},
}

func transportFields(t *model.Transport) map[string]*string {
	return map[string]*string{
		"nationalityOfVehicle": &t.NationalityOfVehicle,
		"registrationNumber":   &t.RegistrationNumber,
		"departurePlace":       &t.DeparturePlace,
		"freightBillNumber":    &t.FreightBillNumber,
		"railwayBillNumber":    &t.RailwayBillNumber,
		"flightNumber":         &t.FlightNumber,
		"containerNumber":      &t.ContainerNumber,
		"vesselName":           &t.VesselName,
		"flagState":            &t.FlagState,
	}
}

// VehicleErrors checks that a known vehicle has been chosen.
func VehicleErrors(t model.Transport) model.Errors {
	errs := model.Errors{}
	switch {
	case validation.IsBlank(t.Vehicle):
		errs.Add(model.ErrorKey(SectionTransport, "vehicle"), model.Message("error.vehicle.required"))
	case !slices.Contains(model.Vehicles(), t.Vehicle):
		errs.Add(model.ErrorKey(SectionTransport, "vehicle"), model.Message("error.vehicle.invalid"))
	}
	return errs
}

// TransportDetailsErrors applies the vehicle-specific required field set. A
// truck covered by a CMR needs nothing else.
func TransportDetailsErrors(t model.Transport) model.Errors {
	errs := VehicleErrors(t)
	if len(errs) > 0 || t.HasCMR() {
		return errs
	}
	fields := transportFields(&t)
	for _, name := range vehicleFields[t.Vehicle] {
		if validation.IsBlank(*fields[name]) {
			errs.Add(model.ErrorKey(SectionTransport, name), model.Message("error."+name+".required"))
		}
	}
	for name, v := range fields {
		if *v == "" {
			continue
		}
		if !validation.MaxLength(*v, maxTransportLength) || !validation.IsFreeText(*v) {
			errs.Add(model.ErrorKey(SectionTransport, name), model.Message("error."+name+".invalid"))
		}
	}
	return errs
}

func trimTransport(t *model.Transport) {
	t.Vehicle = strings.TrimSpace(t.Vehicle)
	t.Cmr = strings.TrimSpace(t.Cmr)
	for _, v := range transportFields(t) {
		*v = strings.TrimSpace(*v)
	}
}

// VehicleStep records how the export leaves the UK.
func VehicleStep[F any](transport func(*F) *model.Transport) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		t := transport(&data)
		trimTransport(t)
		if t.Vehicle != model.VehicleTruck {
			t.Cmr = ""
		}

		errs := collect(in.Errors)
		errs.Merge(VehicleErrors(*t))
		return Output[F]{Data: data, Errors: errs}, nil
	}
}

// CMRStep records whether a truck shipment has a CMR. When it does the step
// skips straight to skipTo instead of the truck details page.
func CMRStep[F any](transport func(*F) *model.Transport, skipTo string) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		t := transport(&data)
		trimTransport(t)

		out := Output[F]{Errors: collect(in.Errors)}
		switch t.Cmr {
		case "true":
			if skipTo != "" {
				out.Next = in.URL(skipTo)
			}
		case "false":
		default:
			out.Errors.Add(model.ErrorKey(SectionTransport, "cmr"), model.Message("error.cmr.required"))
		}
		out.Data = data
		return out, nil
	}
}

// TransportDetailsStep validates the details page for one vehicle type.
func TransportDetailsStep[F any](vehicle string, transport func(*F) *model.Transport) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		t := transport(&data)
		trimTransport(t)
		if t.Vehicle == "" {
			t.Vehicle = vehicle
		}

		errs := collect(in.Errors)
		if t.Vehicle != vehicle {
			errs.Add(model.ErrorKey(SectionTransport, "vehicle"), model.Message("error.vehicle.invalid"))
		} else {
			errs.Merge(TransportDetailsErrors(*t))
		}
		return Output[F]{Data: data, Errors: errs}, nil
	}
}

// DestinationErrors checks a destination country was chosen.
func DestinationErrors(section string, c *model.Country) model.Errors {
	errs := model.Errors{}
	if c.Name() == "" {
		errs.Add(model.ErrorKey(section, "exportedTo"), model.Message("error.exportedTo.required"))
	}
	return errs
}

// DestinationStep validates the export destination country.
func DestinationStep[F any](section string, country func(*F) **model.Country) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		c := country(&data)
		if *c != nil {
			cp := **c
			cp.OfficialCountryName = strings.TrimSpace(cp.OfficialCountryName)
			*c = &cp
		}

		errs := collect(in.Errors)
		errs.Merge(DestinationErrors(section, *c))
		return Output[F]{Data: data, Errors: errs}, nil
	}
}

// AddAnotherStep handles the "do you need to add another?" prompt. "yes" sends
// the user to the add page for the next free index, "no" continues with the
// caller's next URL, and no answer redisplays the prompt with an error. The
// answer itself is transient and cleared once acted on.
func AddAnotherStep[F any](section, field string, answer func(*F) *string, count func(*F) int, addURL string) Handler[F] {
	return func(ctx context.Context, in Input[F]) (Output[F], error) {
		data := in.Data
		a := answer(&data)
		n := count(&data)

		out := Output[F]{Errors: collect(in.Errors)}
		switch strings.ToLower(strings.TrimSpace(*a)) {
		case "yes":
			*a = ""
			out.Next = in.URL(addURL) + "/" + strconv.Itoa(n)
		case "no":
			*a = ""
			if n == 0 {
				out.Errors.Add(model.ErrorKey(section, field), model.Message("error."+section+".atLeastOne"))
			}
		default:
			out.Errors.Add(model.ErrorKey(section, field), model.Message("error."+field+".required"))
		}
		out.Data = data
		return out, nil
	}
}

// RecordedTransportErrors splits stored transport errors between the vehicle
// choice and the vehicle details.
func RecordedTransportErrors(e model.Errors) (vehicle, details bool) {
	for k := range e {
		section, _, field, _ := model.ParseErrorKey(k)
		if section != SectionTransport {
			continue
		}
		if field == "vehicle" {
			vehicle = true
		} else {
			details = true
		}
	}
	return vehicle, details
}
