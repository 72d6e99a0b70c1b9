// Package lifecycle creates, clones and submits export documents.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/pkg/logger"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrIncomplete       = errors.New("document is incomplete")
	ErrAlreadySubmitted = errors.New("document has already been submitted")
)

// IncompleteError lists the sections blocking a submission.
type IncompleteError struct {
	Sections map[string]string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: %d sections", ErrIncomplete, len(e.Sections))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Store is the part of the draft store lifecycle operations need.
type Store interface {
	GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error)
	InsertDraft(ctx context.Context, d *model.Draft) error
	CompleteDraft(ctx context.Context, documentNumber, documentURI, submittedBy string) error
	RecordFailedSubmission(ctx context.Context, documentNumber string) error
}

// Cloner copies a document of one type into a fresh draft.
type Cloner interface {
	Clone(src *model.Draft, documentNumber string, requestByAdmin bool, now time.Time) (*model.Draft, error)
}

// Completeness answers whether a document may be submitted.
type Completeness interface {
	CheckComplete(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string, strict bool) (map[string]string, error)
}

// Archive stores rendered documents and returns their URI.
type Archive interface {
	Store(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// Owner identifies the user acting on a document.
type Owner struct {
	UserPrincipal string
	ContactID     string
	Email         string
}

// Service implements the document lifecycle.
type Service struct {
	store    Store
	cloners  map[model.DocumentType]Cloner
	complete Completeness
	archive  Archive
	now      func() time.Time
}

// NewService wires the lifecycle. archive may be nil, in which case submitted
// documents get no URI.
func NewService(store Store, cloners map[model.DocumentType]Cloner, complete Completeness, archive Archive) *Service {
	return &Service{store: store, cloners: cloners, complete: complete, archive: archive, now: time.Now}
}

// Create starts an empty draft of type t.
func (s *Service) Create(ctx context.Context, t model.DocumentType, owner Owner) (*model.Draft, error) {
	now := s.now()
	d := &model.Draft{
		DocumentNumber: model.NewDocumentNumber(t, now),
		DocumentType:   t,
		UserPrincipal:  owner.UserPrincipal,
		ContactID:      owner.ContactID,
		Status:         model.StatusDraft,
		ExportData:     model.Fields{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertDraft(ctx, d); err != nil {
		logger.Error(ctx, "failed to create draft", "operation", "create", "document_number", d.DocumentNumber, "error", err)
		return nil, fmt.Errorf("create draft: %w", err)
	}
	logger.Info(ctx, "draft created", "document_number", d.DocumentNumber, "document_type", t)
	return d, nil
}

// Clone copies a draft or submitted document into a new draft owned by
// owner. requestByAdmin is passed to the cloner, which keeps the request
// marked on the copy so its submit gate is lenient.
func (s *Service) Clone(ctx context.Context, documentNumber string, owner Owner, requestByAdmin bool) (*model.Draft, error) {
	src, err := s.store.GetDraft(ctx, owner.UserPrincipal, documentNumber, owner.ContactID)
	if err != nil {
		logger.Error(ctx, "failed to load document", "operation", "clone", "document_number", documentNumber, "error", err)
		return nil, fmt.Errorf("load %s: %w", documentNumber, err)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentNumber)
	}
	cloner, ok := s.cloners[src.DocumentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownDocumentType, src.DocumentType)
	}

	now := s.now()
	clone, err := cloner.Clone(src, model.NewDocumentNumber(src.DocumentType, now), requestByAdmin, now)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", documentNumber, err)
	}
	if err := s.store.InsertDraft(ctx, clone); err != nil {
		logger.Error(ctx, "failed to save clone", "operation", "clone", "document_number", documentNumber, "error", err)
		return nil, fmt.Errorf("save clone of %s: %w", documentNumber, err)
	}
	logger.Info(ctx, "document cloned", "document_number", documentNumber, "clone", clone.DocumentNumber)
	return clone, nil
}

// Submission is what a successful submit returns.
type Submission struct {
	DocumentNumber string    `json:"documentNumber"`
	DocumentURI    string    `json:"documentUri,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

type rendered struct {
	DocumentNumber string             `json:"documentNumber"`
	DocumentType   model.DocumentType `json:"documentType"`
	UserReference  string             `json:"userReference,omitempty"`
	SubmittedBy    string             `json:"submittedBy,omitempty"`
	SubmittedAt    time.Time          `json:"submittedAt"`
	ExportData     model.Fields       `json:"exportData"`
}

// Submit checks that every required section is complete, archives the
// rendered document and marks the draft complete. Failing the completeness
// gate bumps the draft's failed submission counter.
func (s *Service) Submit(ctx context.Context, documentNumber string, owner Owner) (*Submission, error) {
	d, err := s.store.GetDraft(ctx, owner.UserPrincipal, documentNumber, owner.ContactID)
	if err != nil {
		logger.Error(ctx, "failed to load draft", "operation", "submit", "document_number", documentNumber, "error", err)
		return nil, fmt.Errorf("load %s: %w", documentNumber, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentNumber)
	}
	if d.IsComplete() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubmitted, documentNumber)
	}

	// Drafts raised on an admin's request may go through with sections whose
	// only problem is a recorded cross-check error.
	strict := !d.RequestByAdmin
	missing, err := s.complete.CheckComplete(ctx, d.DocumentType, owner.UserPrincipal, documentNumber, owner.ContactID, strict)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		if err := s.store.RecordFailedSubmission(ctx, documentNumber); err != nil {
			logger.Warn(ctx, "failed to record failed submission", "document_number", documentNumber, "error", err)
		}
		return nil, &IncompleteError{Sections: missing}
	}

	now := s.now()
	data := maps.Clone(d.ExportData)
	delete(data, "errors")
	delete(data, "errorsUrl")
	body, err := json.Marshal(rendered{
		DocumentNumber: documentNumber,
		DocumentType:   d.DocumentType,
		UserReference:  d.UserReference,
		SubmittedBy:    owner.Email,
		SubmittedAt:    now,
		ExportData:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", documentNumber, err)
	}

	// Archive and store failures leave the draft as it was so the exporter
	// can retry; only the completeness gate counts as a failed submission.
	uri := ""
	if s.archive != nil {
		object := fmt.Sprintf("%s/%s.json", d.DocumentType.URLKey(), documentNumber)
		uri, err = s.archive.Store(ctx, object, body, "application/json")
		if err != nil {
			logger.Error(ctx, "failed to archive document", "operation", "submit", "document_number", documentNumber, "error", err)
			return nil, fmt.Errorf("archive %s: %w", documentNumber, err)
		}
	}
	if err := s.store.CompleteDraft(ctx, documentNumber, uri, owner.Email); err != nil {
		logger.Error(ctx, "failed to complete draft", "operation", "submit", "document_number", documentNumber, "error", err)
		return nil, fmt.Errorf("complete %s: %w", documentNumber, err)
	}
	logger.Info(ctx, "document submitted", "document_number", documentNumber, "document_uri", uri)
	return &Submission{DocumentNumber: documentNumber, DocumentURI: uri, SubmittedAt: now}, nil
}
