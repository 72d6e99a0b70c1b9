// Package processing implements the processing statement document type: its
// front-end and back-end shapes, the wizard steps and the rules progress uses.
package processing

import "github.com/fesexport/backend/model"

// Prefix is the route prefix of every processing statement step.
const Prefix = "/create-processing-statement/" + ":documentNumber"

// Catch certificate types a processed catch can cite.
const (
	CertificateUK    = "uk"
	CertificateNonUK = "non_uk"
)

// Catch is one processed-catch line. Both shapes use the same fields.
type Catch struct {
	ID                           string `json:"id,omitempty"`
	Species                      string `json:"species,omitempty"`
	SpeciesCode                  string `json:"speciesCode,omitempty"`
	ScientificName               string `json:"scientificName,omitempty"`
	CatchCertificateNumber       string `json:"catchCertificateNumber,omitempty"`
	CatchCertificateType         string `json:"catchCertificateType,omitempty"`
	TotalWeightLanded            string `json:"totalWeightLanded,omitempty"`
	ExportWeightBeforeProcessing string `json:"exportWeightBeforeProcessing,omitempty"`
	ExportWeightAfterProcessing  string `json:"exportWeightAfterProcessing,omitempty"`
}

// Statement is the persisted exportData of a processing statement.
type Statement struct {
	ExporterDetails                 *model.Exporter `json:"exporterDetails,omitempty"`
	Catches                         []Catch         `json:"catches,omitempty"`
	ConsignmentDescription          string          `json:"consignmentDescription,omitempty"`
	HealthCertificateNumber         string          `json:"healthCertificateNumber,omitempty"`
	HealthCertificateDate           string          `json:"healthCertificateDate,omitempty"`
	PersonResponsibleForConsignment string          `json:"personResponsibleForConsignment,omitempty"`
	PlantApprovalNumber             string          `json:"plantApprovalNumber,omitempty"`
	PlantName                       string          `json:"plantName,omitempty"`
	PlantAddressOne                 string          `json:"plantAddressOne,omitempty"`
	PlantBuildingName               string          `json:"plantBuildingName,omitempty"`
	PlantBuildingNumber             string          `json:"plantBuildingNumber,omitempty"`
	PlantStreetName                 string          `json:"plantStreetName,omitempty"`
	PlantTownCity                   string          `json:"plantTownCity,omitempty"`
	PlantPostcode                   string          `json:"plantPostcode,omitempty"`
	DateOfAcceptance                string          `json:"dateOfAcceptance,omitempty"`
	ExportedTo                      *model.Country  `json:"exportedTo,omitempty"`
	PointOfDestination              string          `json:"pointOfDestination,omitempty"`
	Errors                          model.Errors    `json:"errors,omitempty"`
	ErrorsURL                       string          `json:"errorsUrl,omitempty"`
}

// PlantAddress is nested in the front-end shape and flattened when persisted.
type PlantAddress struct {
	AddressOne     string `json:"addressOne,omitempty"`
	BuildingName   string `json:"buildingName,omitempty"`
	BuildingNumber string `json:"buildingNumber,omitempty"`
	StreetName     string `json:"streetName,omitempty"`
	TownCity       string `json:"townCity,omitempty"`
	Postcode       string `json:"postcode,omitempty"`
}

// FrontEnd is the shape exchanged with the wizard.
type FrontEnd struct {
	model.StepState
	Exporter                        model.Exporter `json:"exporter"`
	Catches                         []Catch        `json:"catches"`
	ConsignmentDescription          string         `json:"consignmentDescription,omitempty"`
	HealthCertificateNumber         string         `json:"healthCertificateNumber,omitempty"`
	HealthCertificateDate           string         `json:"healthCertificateDate,omitempty"`
	PersonResponsibleForConsignment string         `json:"personResponsibleForConsignment,omitempty"`
	PlantApprovalNumber             string         `json:"plantApprovalNumber,omitempty"`
	PlantName                       string         `json:"plantName,omitempty"`
	PlantAddress                    PlantAddress   `json:"plantAddress"`
	DateOfAcceptance                string         `json:"dateOfAcceptance,omitempty"`
	ExportedTo                      *model.Country `json:"exportedTo,omitempty"`
	PointOfDestination              string         `json:"pointOfDestination,omitempty"`
	UserReference                   string         `json:"userReference,omitempty"`
	// AddAnotherCatch is UI-only and never persisted.
	AddAnotherCatch string `json:"addAnotherCatch,omitempty"`
}
