package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DocumentType identifies one of the export document variants.
type DocumentType string

const (
	CatchCertificate    DocumentType = "catchCertificate"
	ProcessingStatement DocumentType = "processingStatement"
	StorageDocument     DocumentType = "storageDocument"
)

// Draft status constants
const (
	StatusDraft    = "DRAFT"
	StatusComplete = "COMPLETE"
	StatusVoid     = "VOID"
)

var ErrUnknownDocumentType = errors.New("unknown document type")

var documentNumberPattern = regexp.MustCompile(`^GBR-\d{4}-(CC|PS|SD)-[A-Z0-9]{9}$`)

// DocumentTypes lists the supported variants in display order.
func DocumentTypes() []DocumentType {
	return []DocumentType{CatchCertificate, ProcessingStatement, StorageDocument}
}

// ParseDocumentTypeKey accepts either the type key ("catchCertificate") or the
// URL key ("catch-certificate").
func ParseDocumentTypeKey(key string) (DocumentType, error) {
	for _, t := range DocumentTypes() {
		if key == string(t) || key == t.URLKey() {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, key)
}

// URLKey returns the hyphenated form used in routes.
func (t DocumentType) URLKey() string {
	switch t {
	case CatchCertificate:
		return "catch-certificate"
	case ProcessingStatement:
		return "processing-statement"
	case StorageDocument:
		return "storage-document"
	}
	return ""
}

// Code returns the two-letter code embedded in document numbers.
func (t DocumentType) Code() string {
	switch t {
	case CatchCertificate:
		return "CC"
	case ProcessingStatement:
		return "PS"
	case StorageDocument:
		return "SD"
	}
	return ""
}

// IsDocumentNumber reports whether s has the shape of any export document number.
func IsDocumentNumber(s string) bool {
	return documentNumberPattern.MatchString(s)
}

// DocumentTypeFromNumber derives the document type from the code segment of a
// document number.
func DocumentTypeFromNumber(documentNumber string) (DocumentType, error) {
	m := documentNumberPattern.FindStringSubmatch(strings.TrimSpace(documentNumber))
	if m == nil {
		return "", fmt.Errorf("%w: malformed document number %q", ErrUnknownDocumentType, documentNumber)
	}
	for _, t := range DocumentTypes() {
		if t.Code() == m[1] {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, documentNumber)
}

// Draft is the mutable working document for one in-progress wizard session,
// keyed by (UserPrincipal, DocumentNumber, ContactID). Completed documents keep
// the same record with Status set to StatusComplete.
type Draft struct {
	DocumentNumber            string       `json:"documentNumber" bson:"documentNumber"`
	DocumentType              DocumentType `json:"documentType" bson:"documentType"`
	UserPrincipal             string       `json:"userPrincipal" bson:"userPrincipal"`
	ContactID                 string       `json:"contactId,omitempty" bson:"contactId,omitempty"`
	Status                    string       `json:"status" bson:"status"`
	ExportData                Fields       `json:"exportData" bson:"exportData"`
	UserReference             string       `json:"userReference,omitempty" bson:"userReference,omitempty"`
	RequestByAdmin            bool         `json:"requestByAdmin" bson:"requestByAdmin"`
	NumberOfFailedSubmissions int          `json:"numberOfFailedSubmissions,omitempty" bson:"numberOfFailedSubmissions,omitempty"`
	DocumentURI               string       `json:"documentUri,omitempty" bson:"documentUri,omitempty"`
	SubmittedBy               string       `json:"submittedBy,omitempty" bson:"submittedBy,omitempty"`
	CreatedAt                 time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt                 time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// IsComplete reports whether the draft has passed the final submission gate.
func (d *Draft) IsComplete() bool {
	return d != nil && d.Status == StatusComplete
}

// DraftUpdate is the $set applied by an upsert. ExportData is always written;
// UserReference only when non-nil.
type DraftUpdate struct {
	DocumentType  DocumentType
	ExportData    Fields
	UserReference *string
}

// NewClonedDraft returns a fresh draft owned by the same user as src. Audit and
// submission state is not carried over.
func NewClonedDraft(src *Draft, documentNumber string, exportData Fields, requestByAdmin bool, now time.Time) *Draft {
	return &Draft{
		DocumentNumber: documentNumber,
		DocumentType:   src.DocumentType,
		UserPrincipal:  src.UserPrincipal,
		ContactID:      src.ContactID,
		Status:         StatusDraft,
		ExportData:     exportData,
		UserReference:  src.UserReference,
		RequestByAdmin: requestByAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
