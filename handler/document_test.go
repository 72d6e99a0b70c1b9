package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/lifecycle"
	"github.com/fesexport/backend/middleware"
	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/orchestration"
	"github.com/fesexport/backend/steps"
	"github.com/gin-gonic/gin"
)

const docNumber = "GBR-2025-PS-ABCDEF123"

type fakeOrchestrator struct {
	result  *orchestration.Result
	err     error
	gotID   steps.Identity
	gotReq  orchestration.Request
	getData any
}

func (f *fakeOrchestrator) DocumentType() model.DocumentType { return model.ProcessingStatement }

func (f *fakeOrchestrator) Get(ctx context.Context, id steps.Identity) (any, error) {
	f.gotID = id
	return f.getData, f.err
}

func (f *fakeOrchestrator) SaveAndValidate(ctx context.Context, id steps.Identity, req orchestration.Request) (*orchestration.Result, error) {
	f.gotID = id
	f.gotReq = req
	return f.result, f.err
}

type fakeOrchestrators struct{ o *fakeOrchestrator }

func (f fakeOrchestrators) For(t model.DocumentType) (orchestration.Orchestrator, error) {
	if t != f.o.DocumentType() {
		return nil, fmt.Errorf("%w: %s", orchestration.ErrUnsupportedType, t)
	}
	return f.o, nil
}

type fakeProgress struct {
	progress *model.Progress
	missing  map[string]string
	strict   bool
}

func (f *fakeProgress) Get(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string) (*model.Progress, error) {
	return f.progress, nil
}

func (f *fakeProgress) CheckComplete(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string, strict bool) (map[string]string, error) {
	f.strict = strict
	return f.missing, nil
}

type fakeLifecycle struct {
	err            error
	owner          lifecycle.Owner
	requestByAdmin bool
}

func (f *fakeLifecycle) Create(ctx context.Context, t model.DocumentType, owner lifecycle.Owner) (*model.Draft, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &model.Draft{DocumentNumber: model.NewDocumentNumber(t, time.Now()), DocumentType: t}, nil
}

func (f *fakeLifecycle) Clone(ctx context.Context, documentNumber string, owner lifecycle.Owner, requestByAdmin bool) (*model.Draft, error) {
	f.owner = owner
	f.requestByAdmin = requestByAdmin
	if f.err != nil {
		return nil, f.err
	}
	return &model.Draft{DocumentNumber: "GBR-2025-PS-CLONED001"}, nil
}

func (f *fakeLifecycle) Submit(ctx context.Context, documentNumber string, owner lifecycle.Owner) (*lifecycle.Submission, error) {
	f.owner = owner
	if f.err != nil {
		return nil, f.err
	}
	return &lifecycle.Submission{DocumentNumber: documentNumber, DocumentURI: "s3://documents/x.json"}, nil
}

type documentFixture struct {
	router    *gin.Engine
	token     string
	orch      *fakeOrchestrator
	progress  *fakeProgress
	lifecycle *fakeLifecycle
}

func newDocumentFixture(t *testing.T) *documentFixture {
	return newDocumentFixtureFor(t, false)
}

func newDocumentFixtureFor(t *testing.T, admin bool) *documentFixture {
	cfg := &config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 1}
	user := &config.User{Username: "alice", UserPrincipal: "up-1", ContactID: "contact-1", Email: "alice@example.com", Admin: admin}
	token, _, err := middleware.GenerateToken(user, cfg)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	f := &documentFixture{
		token:     token,
		orch:      &fakeOrchestrator{},
		progress:  &fakeProgress{},
		lifecycle: &fakeLifecycle{},
	}
	h := NewDocumentHandler(fakeOrchestrators{f.orch}, f.progress, f.lifecycle)

	f.router = gin.New()
	v1 := f.router.Group("/v1", middleware.AuthMiddleware(cfg))
	h.RegisterRoutes(v1, func(c *gin.Context) { c.Next() })
	return f
}

func (f *documentFixture) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func docPath(suffix string) string {
	return "/v1/processing-statement/" + docNumber + suffix
}

func TestDocumentHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"incomplete", &lifecycle.IncompleteError{Sections: map[string]string{"catches": "error.catches.incomplete"}}, http.StatusBadRequest},
		{"not found", lifecycle.ErrNotFound, http.StatusNotFound},
		{"already submitted", fmt.Errorf("submit: %w", lifecycle.ErrAlreadySubmitted), http.StatusConflict},
		{"document complete", fmt.Errorf("save: %w", orchestration.ErrDocumentComplete), http.StatusConflict},
		{"invalid payload", fmt.Errorf("%w: bad", orchestration.ErrInvalidPayload), http.StatusBadRequest},
		{"entry index out of range", fmt.Errorf("step: %w", steps.ErrInvalidIndex), http.StatusBadRequest},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)
			f.lifecycle.err = tt.err

			w := f.do(http.MethodPost, docPath("/submit"), "", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestDocumentHandlerSubmitIncompleteBody(t *testing.T) {
	f := newDocumentFixture(t)
	f.lifecycle.err = &lifecycle.IncompleteError{Sections: map[string]string{"catches": "error.catches.incomplete"}}

	w := f.do(http.MethodPost, docPath("/submit"), "", nil)

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["catches"] != "error.catches.incomplete" {
		t.Errorf("Expected sections map, got %s", w.Body.String())
	}
	if f.lifecycle.owner.Email != "alice@example.com" {
		t.Errorf("Expected owner email from token, got %q", f.lifecycle.owner.Email)
	}
}

func TestDocumentHandlerCreateDraft(t *testing.T) {
	f := newDocumentFixture(t)

	w := f.do(http.MethodPost, "/v1/storage-document/drafts", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if !strings.Contains(body["documentNumber"], "-SD-") {
		t.Errorf("Expected storage document number, got %q", body["documentNumber"])
	}
	if f.lifecycle.owner.UserPrincipal != "up-1" || f.lifecycle.owner.ContactID != "contact-1" {
		t.Errorf("Unexpected owner %+v", f.lifecycle.owner)
	}

	w = f.do(http.MethodPost, "/v1/invoices/drafts", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for unknown type, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDocumentHandlerGetDraft(t *testing.T) {
	f := newDocumentFixture(t)
	f.orch.getData = map[string]any{"consignmentDescription": "Cod"}

	w := f.do(http.MethodGet, docPath("/draft"), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "Cod") {
		t.Errorf("Expected draft data, got %s", w.Body.String())
	}
	want := steps.Identity{DocumentNumber: docNumber, UserPrincipal: "up-1", ContactID: "contact-1"}
	if f.orch.gotID != want {
		t.Errorf("Expected identity %+v, got %+v", want, f.orch.gotID)
	}

	w = f.do(http.MethodGet, "/v1/catch-certificate/GBR-2025-CC-ABCDEF123/draft", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for unsupported type, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDocumentHandlerSaveAndValidateJSON(t *testing.T) {
	f := newDocumentFixture(t)
	f.orch.result = &orchestration.Result{Data: map[string]any{"plantName": "Plant"}, Redirect: "/next"}

	q := url.Values{}
	q.Set("currentUrl", "/create-processing-statement/"+docNumber+"/add-processing-plant-details")
	q.Set("nextUrl", "/next")
	q.Set("setOnValidationSuccess", "acknowledged")
	q.Set("saveOnErrors", "true")
	body, _ := json.Marshal(map[string]any{"plantName": "Plant"})

	w := f.do(http.MethodPost, docPath("/save-and-validate?"+q.Encode()), "application/json", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	req := f.orch.gotReq
	if req.CurrentURL != q.Get("currentUrl") || req.NextURL != "/next" {
		t.Errorf("Unexpected urls %+v", req)
	}
	if !req.SaveOnErrors || req.SetOnValidationSuccess != "acknowledged" {
		t.Errorf("Expected control params to be read from the query, got %+v", req)
	}
	if req.Payload.String("plantName") != "Plant" {
		t.Errorf("Expected payload to be decoded, got %v", req.Payload)
	}
	if !strings.Contains(w.Body.String(), "Plant") {
		t.Errorf("Expected result data, got %s", w.Body.String())
	}
}

func TestDocumentHandlerSaveAndValidateForm(t *testing.T) {
	tests := []struct {
		name           string
		redirect       string
		expectedStatus int
	}{
		{"relative redirect", "/create-processing-statement/" + docNumber + "/catch-added", http.StatusFound},
		{"absolute redirect refused", "https://elsewhere.example/", http.StatusOK},
		{"no redirect", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)
			f.orch.result = &orchestration.Result{Data: map[string]any{}, Redirect: tt.redirect}

			form := url.Values{}
			form.Set("catches.0.species", "Atlantic cod")
			path := docPath("/save-and-validate?currentUrl=%2Fcurrent")

			w := f.do(http.MethodPost, path, "application/x-www-form-urlencoded", []byte(form.Encode()))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusFound && w.Header().Get("Location") != tt.redirect {
				t.Errorf("Expected Location %q, got %q", tt.redirect, w.Header().Get("Location"))
			}
			if f.orch.gotReq.Payload.String("catches.0.species") != "Atlantic cod" {
				t.Errorf("Expected dotted form key to be kept, got %v", f.orch.gotReq.Payload)
			}
		})
	}
}

func TestDocumentHandlerSaveAndValidateRequiresCurrentURL(t *testing.T) {
	f := newDocumentFixture(t)

	w := f.do(http.MethodPost, docPath("/save-and-validate"), "application/json", []byte(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	w = f.do(http.MethodPost, docPath("/save-and-validate?currentUrl=%2Fx"), "application/json", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for malformed JSON, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDocumentHandlerProgress(t *testing.T) {
	f := newDocumentFixture(t)

	w := f.do(http.MethodGet, docPath("/progress"), "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "null" {
		t.Errorf("Expected 200 null before anything started, got %d %s", w.Code, w.Body.String())
	}

	f.progress.progress = &model.Progress{
		Progress:          map[string]model.SectionStatus{"exporter": model.SectionCompleted},
		CompletedSections: 1,
		RequiredSections:  1,
	}
	w = f.do(http.MethodGet, docPath("/progress"), "", nil)
	if !strings.Contains(w.Body.String(), `"completedSections":1`) {
		t.Errorf("Expected progress body, got %s", w.Body.String())
	}
}

func TestDocumentHandlerCheckProgressComplete(t *testing.T) {
	f := newDocumentFixture(t)

	w := f.do(http.MethodGet, docPath("/progress/complete"), "", nil)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("Expected 200 with no body, got %d %q", w.Code, w.Body.String())
	}
	if f.progress.strict {
		t.Error("Expected the navigation gate to be lenient")
	}

	f.progress.missing = map[string]string{"exporter": "error.exporter.incomplete"}
	w = f.do(http.MethodGet, docPath("/progress/complete"), "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if !strings.Contains(w.Body.String(), "error.exporter.incomplete") {
		t.Errorf("Expected blocking sections, got %s", w.Body.String())
	}
}

func TestDocumentHandlerClone(t *testing.T) {
	tests := []struct {
		name           string
		admin          bool
		query          string
		expectedStatus int
		wantAdminFlag  bool
	}{
		{"exporter clone", false, "", http.StatusCreated, false},
		{"exporter cannot flag admin request", false, "?requestByAdmin=true", http.StatusForbidden, false},
		{"admin flags request", true, "?requestByAdmin=true", http.StatusCreated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixtureFor(t, tt.admin)

			w := f.do(http.MethodPost, docPath("/clone"+tt.query), "", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if f.lifecycle.requestByAdmin != tt.wantAdminFlag {
				t.Errorf("Expected requestByAdmin %v, got %v", tt.wantAdminFlag, f.lifecycle.requestByAdmin)
			}
			if tt.expectedStatus == http.StatusCreated && !strings.Contains(w.Body.String(), "GBR-2025-PS-CLONED001") {
				t.Errorf("Expected cloned number, got %s", w.Body.String())
			}
		})
	}
}

func TestDocumentHandlerRequiresAuth(t *testing.T) {
	f := newDocumentFixture(t)
	req := httptest.NewRequest(http.MethodGet, docPath("/draft"), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
