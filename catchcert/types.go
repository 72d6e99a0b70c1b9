// Package catchcert implements the catch certificate document type.
package catchcert

import "github.com/fesexport/backend/model"

// Prefix is the route prefix of every catch certificate step.
const Prefix = "/create-catch-certificate/" + ":documentNumber"

// Landings entry options.
const (
	EntryManual        = "manualEntry"
	EntryDirectLanding = "directLanding"
	EntryUpload        = "uploadEntry"
)

// CodeName is the persisted form of a coded choice such as a product state.
type CodeName struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Landing is one persisted landing, stored under caughtBy.
type Landing struct {
	ID                  string  `json:"id,omitempty"`
	Vessel              string  `json:"vessel,omitempty"`
	PLN                 string  `json:"pln,omitempty"`
	Date                string  `json:"date,omitempty"`
	FaoArea             string  `json:"faoArea,omitempty"`
	Weight              float64 `json:"weight,omitempty"`
	NumberOfSubmissions int     `json:"numberOfSubmissions,omitempty"`
}

// Product is one persisted product line.
type Product struct {
	SpeciesID                string    `json:"speciesId,omitempty"`
	Species                  string    `json:"species,omitempty"`
	SpeciesCode              string    `json:"speciesCode,omitempty"`
	ScientificName           string    `json:"scientificName,omitempty"`
	CommodityCode            string    `json:"commodityCode,omitempty"`
	CommodityCodeDescription string    `json:"commodityCodeDescription,omitempty"`
	State                    *CodeName `json:"state,omitempty"`
	Presentation             *CodeName `json:"presentation,omitempty"`
	CaughtBy                 []Landing `json:"caughtBy,omitempty"`
}

// Conservation records the conservation and management regime.
type Conservation struct {
	ConservationReference string   `json:"conservationReference,omitempty"`
	Legislation           []string `json:"legislation,omitempty"`
}

// Certificate is the persisted exportData of a catch certificate.
type Certificate struct {
	ExporterDetails        *model.Exporter  `json:"exporterDetails,omitempty"`
	Products               []Product        `json:"products,omitempty"`
	Conservation           *Conservation    `json:"conservation,omitempty"`
	Transportation         *model.Transport `json:"transportation,omitempty"`
	LandingsEntryOption    string           `json:"landingsEntryOption,omitempty"`
	LandingsEntryConfirmed bool             `json:"landingsEntryConfirmed,omitempty"`
	Errors                 model.Errors     `json:"errors,omitempty"`
	ErrorsURL              string           `json:"errorsUrl,omitempty"`
}

// ValueLabel is the wizard form of a coded choice.
type ValueLabel struct {
	Value string `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

// FrontEndLanding is a landing as the wizard edits it.
type FrontEndLanding struct {
	ID                  string `json:"id,omitempty"`
	Vessel              string `json:"vessel,omitempty"`
	PLN                 string `json:"pln,omitempty"`
	DateLanded          string `json:"dateLanded,omitempty"`
	FaoArea             string `json:"faoArea,omitempty"`
	ExportWeight        string `json:"exportWeight,omitempty"`
	NumberOfSubmissions int    `json:"numberOfSubmissions,omitempty"`
}

// FrontEndProduct is a product as the wizard edits it.
type FrontEndProduct struct {
	ID                       string            `json:"id,omitempty"`
	Species                  string            `json:"species,omitempty"`
	SpeciesCode              string            `json:"speciesCode,omitempty"`
	ScientificName           string            `json:"scientificName,omitempty"`
	CommodityCode            string            `json:"commodityCode,omitempty"`
	CommodityCodeDescription string            `json:"commodityCodeDescription,omitempty"`
	State                    *ValueLabel       `json:"state,omitempty"`
	Presentation             *ValueLabel       `json:"presentation,omitempty"`
	Landings                 []FrontEndLanding `json:"landings,omitempty"`
}

// FrontEnd is the shape exchanged with the wizard.
type FrontEnd struct {
	model.StepState
	Exporter               model.Exporter    `json:"exporter"`
	Products               []FrontEndProduct `json:"products"`
	Conservation           Conservation      `json:"conservation"`
	Transport              model.Transport   `json:"transport"`
	LandingsEntryOption    string            `json:"landingsEntryOption,omitempty"`
	LandingsEntryConfirmed bool              `json:"landingsEntryConfirmed,omitempty"`
	UserReference          string            `json:"userReference,omitempty"`
	// AddAnotherProduct is UI-only and never persisted.
	AddAnotherProduct string `json:"addAnotherProduct,omitempty"`
}
