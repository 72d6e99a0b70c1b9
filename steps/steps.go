// Package steps defines wizard step handlers and the registry that dispatches a
// step's logical URL to its handler.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/urlmatch"
)

// DocumentNumberParam is the placeholder the document number segment is
// normalised to before matching.
const DocumentNumberParam = ":documentNumber"

// Identity scopes a step to one user's document.
type Identity struct {
	DocumentNumber string
	UserPrincipal  string
	ContactID      string
}

// Input is what a handler sees: the merged step data it owns, errors collected
// so far, and the parameters captured from the step URL.
type Input[F any] struct {
	Identity
	Data   F
	Errors model.Errors
	Params map[string]string
}

// ErrInvalidIndex is returned when a step URL addresses an entry that is
// neither an existing one nor the next to add.
var ErrInvalidIndex = errors.New("invalid entry index")

// EntryIndex returns the named path parameter as an index into a list of
// length entries. Only existing entries and the one directly after them
// can be addressed.
func (in Input[F]) EntryIndex(name string, length int) (int, error) {
	i, ok := in.Index(name)
	if !ok || i > length {
		return 0, fmt.Errorf("%w: %s=%q with %d entries", ErrInvalidIndex, name, in.Params[name], length)
	}
	return i, nil
}

// Index returns the named path parameter as a non-negative int.
func (in Input[F]) Index(name string) (int, bool) {
	v, ok := in.Params[name]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// URL expands a step template for this document.
func (in Input[F]) URL(template string) string {
	return strings.ReplaceAll(template, DocumentNumberParam, in.DocumentNumber)
}

// Output carries the normalised data to persist, the step's errors, and an
// optional next URL overriding the caller's.
type Output[F any] struct {
	Data   F
	Errors model.Errors
	Next   string
}

// Handler validates and normalises one wizard step. Field problems go in
// Output.Errors; a returned error means a collaborator failed.
type Handler[F any] func(ctx context.Context, in Input[F]) (Output[F], error)

// Route binds a URL template to a handler.
type Route[F any] struct {
	Pattern string
	Handler Handler[F]
}

// Registry resolves logical step URLs to handlers in registration order.
type Registry[F any] struct {
	table urlmatch.Table[Handler[F]]
}

// Compose builds one registry from several route sets. It is called once at
// start-up per document type.
func Compose[F any](sets ...[]Route[F]) (*Registry[F], error) {
	r := &Registry[F]{}
	for _, set := range sets {
		for _, route := range set {
			if route.Handler == nil {
				return nil, fmt.Errorf("route %q has no handler", route.Pattern)
			}
			if err := r.table.Add(route.Pattern, route.Handler); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Lookup finds the handler for a logical path. ok is false when no step is
// registered, which callers treat as a pass-through.
func (r *Registry[F]) Lookup(path string) (h Handler[F], params map[string]string, ok bool) {
	return r.table.Match(path)
}

// Patterns lists the registered templates.
func (r *Registry[F]) Patterns() []string {
	return r.table.Templates()
}

// LogicalURL strips the query and replaces the document number segment with
// the placeholder used in templates.
func LogicalURL(url, documentNumber string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if documentNumber == "" {
		return url
	}
	return strings.ReplaceAll(url, documentNumber, DocumentNumberParam)
}

func collect(prior model.Errors) model.Errors {
	errs := model.Errors{}
	errs.Merge(prior)
	return errs
}
