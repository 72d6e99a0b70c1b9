// Package storage implements the storage document type.
package storage

import "github.com/fesexport/backend/model"

// Prefix is the route prefix of every storage document step.
const Prefix = "/create-storage-document/" + ":documentNumber"

const (
	CertificateUK    = "uk"
	CertificateNonUK = "non_uk"
)

// Catch is one product line stored before export.
type Catch struct {
	ID                    string `json:"id,omitempty"`
	Product               string `json:"product,omitempty"`
	SpeciesCode           string `json:"speciesCode,omitempty"`
	CommodityCode         string `json:"commodityCode,omitempty"`
	CertificateNumber     string `json:"certificateNumber,omitempty"`
	CertificateType       string `json:"certificateType,omitempty"`
	ProductWeight         string `json:"productWeight,omitempty"`
	WeightOnCC            string `json:"weightOnCC,omitempty"`
	PlaceOfUnloading      string `json:"placeOfUnloading,omitempty"`
	DateOfUnloading       string `json:"dateOfUnloading,omitempty"`
	TransportUnloadedFrom string `json:"transportUnloadedFrom,omitempty"`
}

// Facility is a storage facility the products passed through.
type Facility struct {
	ID                  string `json:"id,omitempty"`
	FacilityName        string `json:"facilityName,omitempty"`
	FacilityAddressOne  string `json:"facilityAddressOne,omitempty"`
	FacilityTownCity    string `json:"facilityTownCity,omitempty"`
	FacilityPostcode    string `json:"facilityPostcode,omitempty"`
	FacilityArrivalDate string `json:"facilityArrivalDate,omitempty"`
}

// Document is the persisted exportData of a storage document.
type Document struct {
	ExporterDetails   *model.Exporter  `json:"exporterDetails,omitempty"`
	Catches           []Catch          `json:"catches,omitempty"`
	StorageFacilities []Facility       `json:"storageFacilities,omitempty"`
	ExportedTo        *model.Country   `json:"exportedTo,omitempty"`
	Transportation    *model.Transport `json:"transportation,omitempty"`
	Errors            model.Errors     `json:"errors,omitempty"`
	ErrorsURL         string           `json:"errorsUrl,omitempty"`
}

// FrontEnd is the shape exchanged with the wizard.
type FrontEnd struct {
	model.StepState
	Exporter      model.Exporter  `json:"exporter"`
	Catches       []Catch         `json:"catches"`
	Facilities    []Facility      `json:"facilities"`
	ExportedTo    *model.Country  `json:"exportedTo,omitempty"`
	Transport     model.Transport `json:"transport"`
	UserReference string          `json:"userReference,omitempty"`

	AddAnotherProduct         string `json:"addAnotherProduct,omitempty"`
	AddAnotherStorageFacility string `json:"addAnotherStorageFacility,omitempty"`
}
