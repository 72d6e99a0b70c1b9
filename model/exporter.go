package model

import "strings"

// Exporter holds the exporter details shared by all document types.
type Exporter struct {
	ContactID           string `json:"contactId,omitempty"`
	AccountID           string `json:"accountId,omitempty"`
	ExporterFullName    string `json:"exporterFullName,omitempty"`
	ExporterCompanyName string `json:"exporterCompanyName,omitempty"`
	AddressOne          string `json:"addressOne,omitempty"`
	BuildingNumber      string `json:"buildingNumber,omitempty"`
	SubBuildingName     string `json:"subBuildingName,omitempty"`
	BuildingName        string `json:"buildingName,omitempty"`
	StreetName          string `json:"streetName,omitempty"`
	County              string `json:"county,omitempty"`
	Country             string `json:"country,omitempty"`
	TownCity            string `json:"townCity,omitempty"`
	Postcode            string `json:"postcode,omitempty"`
}

// Country is the destination shape. Legacy drafts stored a bare country name;
// adapters promote it with NormalizeCountry.
type Country struct {
	OfficialCountryName string `json:"officialCountryName,omitempty"`
	IsoCodeAlpha2       string `json:"isoCodeAlpha2,omitempty"`
	IsoCodeAlpha3       string `json:"isoCodeAlpha3,omitempty"`
	IsoNumericCode      string `json:"isoNumericCode,omitempty"`
}

// Name returns the official name, or "" for a nil country.
func (c *Country) Name() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.OfficialCountryName)
}

// NormalizeCountry rewrites a bare string at the dotted path into
// {officialCountryName: s}.
func NormalizeCountry(f Fields, path ...string) {
	var node map[string]any = f
	for _, seg := range path[:len(path)-1] {
		next, ok := asObject(node[seg])
		if !ok {
			return
		}
		node = next
	}
	last := path[len(path)-1]
	if s, ok := node[last].(string); ok {
		if strings.TrimSpace(s) == "" {
			delete(node, last)
			return
		}
		node[last] = map[string]any{"officialCountryName": s}
	}
}

// Transport vehicle types
const (
	VehicleTruck           = "truck"
	VehicleTrain           = "train"
	VehiclePlane           = "plane"
	VehicleContainerVessel = "containerVessel"
	VehicleFishingVessel   = "fishingVessel"
)

// Vehicles lists the accepted vehicle values.
func Vehicles() []string {
	return []string{VehicleTruck, VehicleTrain, VehiclePlane, VehicleContainerVessel, VehicleFishingVessel}
}

// Transport is shared by catch certificates and storage documents.
type Transport struct {
	Vehicle              string   `json:"vehicle,omitempty"`
	ExportedFrom         string   `json:"exportedFrom,omitempty"`
	ExportedTo           *Country `json:"exportedTo,omitempty"`
	Cmr                  string   `json:"cmr,omitempty"`
	NationalityOfVehicle string   `json:"nationalityOfVehicle,omitempty"`
	RegistrationNumber   string   `json:"registrationNumber,omitempty"`
	DeparturePlace       string   `json:"departurePlace,omitempty"`
	FreightBillNumber    string   `json:"freightBillNumber,omitempty"`
	RailwayBillNumber    string   `json:"railwayBillNumber,omitempty"`
	FlightNumber         string   `json:"flightNumber,omitempty"`
	ContainerNumber      string   `json:"containerNumber,omitempty"`
	VesselName           string   `json:"vesselName,omitempty"`
	FlagState            string   `json:"flagState,omitempty"`
}

// HasCMR reports whether a truck shipment is covered by a CMR road waybill.
func (t *Transport) HasCMR() bool {
	return t != nil && t.Vehicle == VehicleTruck && t.Cmr == "true"
}
