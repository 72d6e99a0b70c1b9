package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/model"
)

var (
	ErrDraftNotFound    = errors.New("draft not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// DraftStore persists drafts and completed documents. GetDraft and
// GetDocument return nil, nil when nothing matches.
type DraftStore interface {
	GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error)
	GetDocument(ctx context.Context, documentNumber string) (*model.Draft, error)
	InsertDraft(ctx context.Context, d *model.Draft) error
	UpsertDraftData(ctx context.Context, userPrincipal, documentNumber, contactID string, update model.DraftUpdate) error
	CompleteDraft(ctx context.Context, documentNumber, documentURI, submittedBy string) error
	RecordFailedSubmission(ctx context.Context, documentNumber string) error
	Close() error
}

// OpenDraftStore returns the store selected by cfg.Driver.
func OpenDraftStore(ctx context.Context, cfg *config.StoreConfig) (DraftStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(cfg.MaxDrafts), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// MemoryStore is an in-process draft store for development and tests.
type MemoryStore struct {
	drafts    map[string]*model.Draft
	mu        sync.RWMutex
	maxDrafts int // Maximum drafts to keep, 0 = unlimited
	now       func() time.Time
}

// NewMemoryStore returns an empty store that evicts the least recently
// updated drafts beyond maxDrafts.
func NewMemoryStore(maxDrafts int) *MemoryStore {
	if maxDrafts < 0 {
		maxDrafts = 0
	}
	slog.Info("draft store initialized", "driver", "memory", "max_drafts", maxDrafts)
	return &MemoryStore{
		drafts:    make(map[string]*model.Draft),
		maxDrafts: maxDrafts,
		now:       time.Now,
	}
}

func owns(d *model.Draft, userPrincipal, contactID string) bool {
	return d.UserPrincipal == userPrincipal && d.ContactID == contactID
}

func copyDraft(d *model.Draft) *model.Draft {
	c := *d
	c.ExportData = d.ExportData.Clone()
	return &c
}

// GetDraft returns a copy of the draft only when it belongs to the given
// principal and contact. A draft owned by someone else looks missing.
func (s *MemoryStore) GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[documentNumber]
	if !ok || !owns(d, userPrincipal, contactID) {
		return nil, nil
	}
	return copyDraft(d), nil
}

// GetDocument looks a document up by number alone, drafts and completed
// documents alike. Callers check ownership themselves.
func (s *MemoryStore) GetDocument(ctx context.Context, documentNumber string) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[documentNumber]
	if !ok {
		return nil, nil
	}
	return copyDraft(d), nil
}

// InsertDraft stores a copy of d and fails if the number is taken.
func (s *MemoryStore) InsertDraft(ctx context.Context, d *model.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[d.DocumentNumber]; ok {
		return fmt.Errorf("insert %s: document number already in use", d.DocumentNumber)
	}
	s.drafts[d.DocumentNumber] = copyDraft(d)
	s.cleanupIfNeeded()
	return nil
}

// UpsertDraftData creates the draft on first save. ExportData is replaced
// whole; a nil UserReference keeps the stored one and an empty DocumentType
// keeps the stored type. Saving over another owner's draft returns
// ErrDocumentNotFound.
func (s *MemoryStore) UpsertDraftData(ctx context.Context, userPrincipal, documentNumber, contactID string, update model.DraftUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	d, ok := s.drafts[documentNumber]
	if !ok {
		d = &model.Draft{
			DocumentNumber: documentNumber,
			UserPrincipal:  userPrincipal,
			ContactID:      contactID,
			Status:         model.StatusDraft,
			CreatedAt:      now,
		}
		s.drafts[documentNumber] = d
	} else if !owns(d, userPrincipal, contactID) {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentNumber)
	}

	if update.DocumentType != "" {
		d.DocumentType = update.DocumentType
	}
	d.ExportData = update.ExportData.Clone()
	if update.UserReference != nil {
		d.UserReference = *update.UserReference
	}
	d.UpdatedAt = now
	s.cleanupIfNeeded()
	return nil
}

// CompleteDraft marks the document complete. Completed documents are never
// evicted.
func (s *MemoryStore) CompleteDraft(ctx context.Context, documentNumber, documentURI, submittedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[documentNumber]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, documentNumber)
	}
	d.Status = model.StatusComplete
	d.DocumentURI = documentURI
	d.SubmittedBy = submittedBy
	d.UpdatedAt = s.now()
	return nil
}

// RecordFailedSubmission bumps the draft's failed submission counter.
func (s *MemoryStore) RecordFailedSubmission(ctx context.Context, documentNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[documentNumber]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, documentNumber)
	}
	d.NumberOfFailedSubmissions++
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// cleanupIfNeeded removes the least recently updated drafts once the store
// exceeds maxDrafts. Completed documents are never evicted.
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxDrafts <= 0 || len(s.drafts) <= s.maxDrafts {
		return
	}

	drafts := make([]*model.Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		if !d.IsComplete() {
			drafts = append(drafts, d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.Before(drafts[j].UpdatedAt)
	})

	removeCount := len(s.drafts) - s.maxDrafts
	for i := 0; i < removeCount && i < len(drafts); i++ {
		slog.Info("auto-cleaning old draft",
			"document_number", drafts[i].DocumentNumber,
			"updated_at", drafts[i].UpdatedAt,
		)
		delete(s.drafts, drafts[i].DocumentNumber)
	}
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}
