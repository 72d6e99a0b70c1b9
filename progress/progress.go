// Package progress derives section-by-section completion of a draft. Each
// document type supplies a Rule; this package owns status precedence and the
// section tally.
package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/pkg/logger"
)

// Section is the evaluated state of one document section.
type Section struct {
	Name string
	// Meta sections are reported but never required.
	Meta        bool
	CannotStart bool
	Errored     bool
	Complete    bool
	Optional    bool
}

// Status applies the precedence CANNOT START, ERROR, COMPLETED, OPTIONAL,
// INCOMPLETE.
func (s Section) Status() model.SectionStatus {
	switch {
	case s.CannotStart:
		return model.SectionCannotStart
	case s.Errored:
		return model.SectionError
	case s.Complete:
		return model.SectionCompleted
	case s.Optional:
		return model.SectionOptional
	}
	return model.SectionIncomplete
}

// Evaluate tallies sections into a Progress. Errored sections count as
// completed; meta sections are never required.
func Evaluate(sections ...Section) *model.Progress {
	p := &model.Progress{Progress: make(map[string]model.SectionStatus, len(sections))}
	for _, s := range sections {
		status := s.Status()
		p.Progress[s.Name] = status
		if s.Meta {
			continue
		}
		p.RequiredSections++
		if status == model.SectionCompleted || status == model.SectionError {
			p.CompletedSections++
		}
	}
	return p
}

// Reference is the user reference meta section shared by every type.
func Reference(userReference string) Section {
	return Section{Name: model.SectionReference, Meta: true, Optional: true, Complete: userReference != ""}
}

// Rule computes the progress of one document type. A nil Progress means the
// document has not been started.
type Rule func(ctx context.Context, d *model.Draft) (*model.Progress, error)

// DraftReader loads a user's draft; a missing draft is (nil, nil).
type DraftReader interface {
	GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error)
}

var ErrNoRule = errors.New("no progress rule for document type")

// Service answers progress queries from the persisted draft.
type Service struct {
	store DraftReader
	rules map[model.DocumentType]Rule
}

// NewService returns a Service using the given per-type rules.
func NewService(store DraftReader, rules map[model.DocumentType]Rule) *Service {
	return &Service{store: store, rules: rules}
}

// Get returns the progress of a user's document, or nil when nothing has been
// started.
func (s *Service) Get(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string) (*model.Progress, error) {
	rule, ok := s.rules[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRule, t)
	}
	draft, err := s.store.GetDraft(ctx, userPrincipal, documentNumber, contactID)
	if err != nil {
		logger.Error(ctx, "failed to load draft for progress",
			"operation", "progress", "document_number", documentNumber, "error", err)
		return nil, fmt.Errorf("load draft %s: %w", documentNumber, err)
	}
	p, err := rule(ctx, draft)
	if err != nil {
		logger.Error(ctx, "failed to compute progress",
			"operation", "progress", "document_number", documentNumber, "error", err)
		return nil, err
	}
	return p, nil
}

// CheckComplete returns the sections blocking completion, or an empty map when
// every required section has been attempted. strict additionally blocks on
// errored sections.
func (s *Service) CheckComplete(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string, strict bool) (map[string]string, error) {
	p, err := s.Get(ctx, t, userPrincipal, documentNumber, contactID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return map[string]string{"document": "error.document.incomplete"}, nil
	}
	return p.Incomplete(strict), nil
}
