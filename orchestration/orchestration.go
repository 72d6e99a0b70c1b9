// Package orchestration runs the save-and-validate protocol for wizard steps:
// merge the submitted fields over the current draft, dispatch the step
// handler, and persist either the validated data or the last good snapshot.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/pkg/logger"
	"github.com/fesexport/backend/steps"
)

var (
	ErrInvalidPayload   = errors.New("invalid step payload")
	ErrDocumentComplete = errors.New("document has already been submitted")
	ErrUnsupportedType  = errors.New("unsupported document type")
)

// Adapter is what a document type provides to the service.
type Adapter[F any] interface {
	DocumentType() model.DocumentType
	FromDraft(d *model.Draft) (F, error)
	Exporter(d *model.Draft) *model.Exporter
	Update(fe F, exporter *model.Exporter, documentNumber string) (model.DraftUpdate, error)
}

// DraftStore is the part of the draft store the service needs.
type DraftStore interface {
	GetDraft(ctx context.Context, userPrincipal, documentNumber, contactID string) (*model.Draft, error)
	UpsertDraftData(ctx context.Context, userPrincipal, documentNumber, contactID string, update model.DraftUpdate) error
}

// Prepare runs after the merge and before the step handler.
type Prepare[F any] func(ctx context.Context, data *F, payload model.Fields) error

// Document wires one document type into a Service.
type Document[F any] struct {
	Adapter  Adapter[F]
	Registry *steps.Registry[F]
	Prepare  Prepare[F]
	// State exposes the embedded errors and errorsUrl of a front-end value.
	State func(*F) *model.StepState
}

// Request is one step submission.
type Request struct {
	Payload                model.Fields
	CurrentURL             string
	NextURL                string
	SaveAsDraftURL         string
	SetOnValidationSuccess string
	SaveOnErrors           bool
}

// Result is the outcome of a step submission.
type Result struct {
	// Data is the front-end shape returned to API clients.
	Data   any
	Errors model.Errors
	Next   string
	// Redirect is where form clients are sent.
	Redirect string
}

// Failed reports whether the step had validation errors.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Service orchestrates one document type.
type Service[F any] struct {
	store DraftStore
	doc   Document[F]
}

// NewService returns the service for doc.
func NewService[F any](store DraftStore, doc Document[F]) *Service[F] {
	return &Service[F]{store: store, doc: doc}
}

func (s *Service[F]) DocumentType() model.DocumentType {
	return s.doc.Adapter.DocumentType()
}

// Load returns the front-end shape of the draft, or the initial state when
// there is none.
func (s *Service[F]) Load(ctx context.Context, id steps.Identity) (F, error) {
	draft, err := s.store.GetDraft(ctx, id.UserPrincipal, id.DocumentNumber, id.ContactID)
	if err != nil {
		var zero F
		logger.Error(ctx, "failed to load draft", "operation", "get", "document_number", id.DocumentNumber, "error", err)
		return zero, fmt.Errorf("load draft %s: %w", id.DocumentNumber, err)
	}
	return s.doc.Adapter.FromDraft(draft)
}

// Get implements Orchestrator.
func (s *Service[F]) Get(ctx context.Context, id steps.Identity) (any, error) {
	return s.Load(ctx, id)
}

// SaveAndValidate merges req.Payload into the draft, validates the step at
// req.CurrentURL and persists the result. Unless req.SaveOnErrors is set, a
// failed step only records its errors on the previously saved data.
func (s *Service[F]) SaveAndValidate(ctx context.Context, id steps.Identity, req Request) (*Result, error) {
	fail := func(msg string, err error) (*Result, error) {
		logger.Error(ctx, msg, "operation", "saveAndValidate", "document_number", id.DocumentNumber,
			"current_url", req.CurrentURL, "error", err)
		return nil, err
	}

	draft, err := s.store.GetDraft(ctx, id.UserPrincipal, id.DocumentNumber, id.ContactID)
	if err != nil {
		return fail("failed to load draft", fmt.Errorf("load draft %s: %w", id.DocumentNumber, err))
	}
	if draft.IsComplete() {
		return nil, fmt.Errorf("%w: %s", ErrDocumentComplete, id.DocumentNumber)
	}
	original, err := s.doc.Adapter.FromDraft(draft)
	if err != nil {
		return fail("failed to decode draft", err)
	}

	data, err := merge(original, req.Payload)
	if err != nil {
		return nil, err
	}
	s.doc.State(&data).Clear()

	if s.doc.Prepare != nil {
		if err := s.doc.Prepare(ctx, &data, req.Payload); err != nil {
			return fail("failed to prepare step data", err)
		}
	}

	errs := model.Errors{}
	next := ""
	path := steps.LogicalURL(req.CurrentURL, id.DocumentNumber)
	if h, params, ok := s.doc.Registry.Lookup(path); ok {
		out, err := h(ctx, steps.Input[F]{Identity: id, Data: data, Errors: model.Errors{}, Params: params})
		if err != nil {
			return fail("step handler failed", fmt.Errorf("step %s: %w", path, err))
		}
		data = out.Data
		if out.Errors != nil {
			errs = out.Errors
		}
		next = out.Next
	} else {
		logger.Debug(ctx, "no handler for step", "document_number", id.DocumentNumber, "path", path)
	}

	failed := len(errs) > 0
	if failed {
		errorsURL := stripQuery(req.CurrentURL)
		for _, st := range []*model.StepState{s.doc.State(&data), s.doc.State(&original)} {
			st.Errors = errs
			st.ErrorsURL = errorsURL
		}
		if next == "" {
			next = req.CurrentURL
		}
	} else {
		if next == "" {
			next = req.NextURL
		}
		if req.SetOnValidationSuccess != "" {
			data = setFlag(ctx, data, req.SetOnValidationSuccess)
		}
		s.doc.State(&data).Clear()
	}

	persisted := data
	if failed && !req.SaveOnErrors {
		persisted = original
	}
	update, err := s.doc.Adapter.Update(persisted, s.doc.Adapter.Exporter(draft), id.DocumentNumber)
	if err != nil {
		return fail("failed to convert draft", err)
	}
	if err := s.store.UpsertDraftData(ctx, id.UserPrincipal, id.DocumentNumber, id.ContactID, update); err != nil {
		return fail("failed to save draft", fmt.Errorf("save draft %s: %w", id.DocumentNumber, err))
	}

	res := &Result{Errors: errs, Next: next, Redirect: next}
	if !failed && req.SaveAsDraftURL != "" {
		res.Redirect = req.SaveAsDraftURL
	}
	if failed && !req.SaveOnErrors {
		res.Data = original
	} else {
		res.Data = data
	}
	logger.Info(ctx, "step saved", "document_number", id.DocumentNumber, "path", path, "errors", len(errs))
	return res, nil
}

// merge overlays payload on the flattened current value.
func merge[F any](current F, payload model.Fields) (F, error) {
	var out F
	base, err := model.ToFields(current)
	if err != nil {
		return out, err
	}
	base.Merge(payload)
	if err := base.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out, nil
}

// setFlag sets a boolean field by its JSON name. Names the document does not
// carry as a boolean are dropped.
func setFlag[F any](ctx context.Context, data F, name string) F {
	fields, err := model.ToFields(data)
	if err != nil {
		return data
	}
	fields[name] = true
	var out F
	if err := fields.Decode(&out); err != nil {
		logger.Warn(ctx, "ignoring flag", "flag", name, "error", err)
		return data
	}
	return out
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// Orchestrator is a Service with its front-end type erased.
type Orchestrator interface {
	DocumentType() model.DocumentType
	Get(ctx context.Context, id steps.Identity) (any, error)
	SaveAndValidate(ctx context.Context, id steps.Identity, req Request) (*Result, error)
}

// Dispatcher routes requests to the service for a document type.
type Dispatcher struct {
	services map[model.DocumentType]Orchestrator
}

// NewDispatcher registers one service per document type.
func NewDispatcher(services ...Orchestrator) *Dispatcher {
	d := &Dispatcher{services: make(map[model.DocumentType]Orchestrator, len(services))}
	for _, s := range services {
		d.services[s.DocumentType()] = s
	}
	return d
}

// For returns the service for t.
func (d *Dispatcher) For(t model.DocumentType) (Orchestrator, error) {
	s, ok := d.services[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return s, nil
}
