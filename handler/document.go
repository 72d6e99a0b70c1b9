package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fesexport/backend/lifecycle"
	"github.com/fesexport/backend/middleware"
	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/orchestration"
	"github.com/fesexport/backend/pkg/logger"
	"github.com/fesexport/backend/steps"
	"github.com/gin-gonic/gin"
)

// Orchestrators resolves the wizard service of a document type.
type Orchestrators interface {
	For(t model.DocumentType) (orchestration.Orchestrator, error)
}

// ProgressReader reports how far a document has got.
type ProgressReader interface {
	Get(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string) (*model.Progress, error)
	CheckComplete(ctx context.Context, t model.DocumentType, userPrincipal, documentNumber, contactID string, strict bool) (map[string]string, error)
}

// Lifecycle creates, clones and submits documents.
type Lifecycle interface {
	Create(ctx context.Context, t model.DocumentType, owner lifecycle.Owner) (*model.Draft, error)
	Clone(ctx context.Context, documentNumber string, owner lifecycle.Owner, requestByAdmin bool) (*model.Draft, error)
	Submit(ctx context.Context, documentNumber string, owner lifecycle.Owner) (*lifecycle.Submission, error)
}

type DocumentHandler struct {
	orchestrators Orchestrators
	progress      ProgressReader
	lifecycle     Lifecycle
}

func NewDocumentHandler(o Orchestrators, p ProgressReader, l Lifecycle) *DocumentHandler {
	return &DocumentHandler{orchestrators: o, progress: p, lifecycle: l}
}

func identity(c *gin.Context) steps.Identity {
	id := middleware.GetIdentity(c)
	return steps.Identity{
		DocumentNumber: c.Param("documentNumber"),
		UserPrincipal:  id.UserPrincipal,
		ContactID:      id.ContactID,
	}
}

func owner(c *gin.Context) lifecycle.Owner {
	id := middleware.GetIdentity(c)
	return lifecycle.Owner{UserPrincipal: id.UserPrincipal, ContactID: id.ContactID, Email: id.Email}
}

// documentType prefers the type validated by the ownership middleware.
func documentType(c *gin.Context) (model.DocumentType, error) {
	if t := middleware.GetDocumentType(c); t != "" {
		return t, nil
	}
	return model.ParseDocumentTypeKey(c.Param("documentType"))
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var incomplete *lifecycle.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		c.JSON(http.StatusBadRequest, incomplete.Sections)
	case errors.Is(err, model.ErrUnknownDocumentType),
		errors.Is(err, orchestration.ErrUnsupportedType),
		errors.Is(err, orchestration.ErrInvalidPayload),
		errors.Is(err, steps.ErrInvalidIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, orchestration.ErrDocumentComplete), errors.Is(err, lifecycle.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": middleware.GetRequestID(c),
		})
	}
}

// CreateDraft starts a new draft of the route's document type.
func (h *DocumentHandler) CreateDraft(c *gin.Context) {
	t, err := documentType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.lifecycle.Create(c.Request.Context(), t, owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"documentNumber": d.DocumentNumber})
}

// GetDraft returns the wizard view of a draft.
func (h *DocumentHandler) GetDraft(c *gin.Context) {
	t, err := documentType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	o, err := h.orchestrators.For(t)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := o.Get(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// SaveAndValidate submits one wizard step. Form clients are redirected to
// the next page; API clients get the resulting data.
func (h *DocumentHandler) SaveAndValidate(c *gin.Context) {
	t, err := documentType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	o, err := h.orchestrators.For(t)
	if err != nil {
		respondError(c, err)
		return
	}

	form := isFormRequest(c)
	payload := model.Fields{}
	if form {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form body"})
			return
		}
		payload = model.FieldsFromForm(c.Request.PostForm)
	} else if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	saveOnErrors, _ := strconv.ParseBool(c.Query("saveOnErrors"))
	req := orchestration.Request{
		Payload:                payload,
		CurrentURL:             c.Query("currentUrl"),
		NextURL:                c.Query("nextUrl"),
		SaveAsDraftURL:         c.Query("saveAsDraftUrl"),
		SetOnValidationSuccess: c.Query("setOnValidationSuccess"),
		SaveOnErrors:           saveOnErrors,
	}
	if req.CurrentURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentUrl is required"})
		return
	}

	res, err := o.SaveAndValidate(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if form && res.Redirect != "" && strings.HasPrefix(res.Redirect, "/") {
		c.Redirect(http.StatusFound, res.Redirect)
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

// GetProgress returns the progress view, or null when nothing has started.
func (h *DocumentHandler) GetProgress(c *gin.Context) {
	t, err := documentType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id := identity(c)
	p, err := h.progress.Get(c.Request.Context(), t, id.UserPrincipal, id.DocumentNumber, id.ContactID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CheckProgressComplete answers 200 with no body when every required section
// has been attempted, else 400 with the blocking sections.
func (h *DocumentHandler) CheckProgressComplete(c *gin.Context) {
	t, err := documentType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id := identity(c)
	missing, err := h.progress.CheckComplete(c.Request.Context(), t, id.UserPrincipal, id.DocumentNumber, id.ContactID, false)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, missing)
		return
	}
	c.Status(http.StatusOK)
}

// Clone copies a document into a new draft. Only admins may flag the clone as
// raised on their request.
func (h *DocumentHandler) Clone(c *gin.Context) {
	requestByAdmin, _ := strconv.ParseBool(c.Query("requestByAdmin"))
	if requestByAdmin && !middleware.GetIdentity(c).Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "requestByAdmin requires an admin user"})
		return
	}
	d, err := h.lifecycle.Clone(c.Request.Context(), c.Param("documentNumber"), owner(c), requestByAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"documentNumber": d.DocumentNumber})
}

// Submit runs the final completeness gate and completes the document.
func (h *DocumentHandler) Submit(c *gin.Context) {
	sub, err := h.lifecycle.Submit(c.Request.Context(), c.Param("documentNumber"), owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// RegisterRoutes mounts the document endpoints on an authenticated group.
func (h *DocumentHandler) RegisterRoutes(v1 *gin.RouterGroup, ownership gin.HandlerFunc) {
	v1.POST("/:documentType/drafts", h.CreateDraft)

	doc := v1.Group("/:documentType/:documentNumber", ownership)
	doc.GET("/draft", h.GetDraft)
	doc.POST("/save-and-validate", h.SaveAndValidate)
	doc.GET("/progress", h.GetProgress)
	doc.GET("/progress/complete", h.CheckProgressComplete)
	doc.POST("/clone", h.Clone)
	doc.POST("/submit", h.Submit)
}
