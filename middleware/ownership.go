package middleware

import (
	"context"
	"net/http"

	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// DocumentLookup finds a document by number regardless of owner.
type DocumentLookup interface {
	GetDocument(ctx context.Context, documentNumber string) (*model.Draft, error)
}

// DocumentOwnership guards routes carrying :documentType and
// :documentNumber. The number must be well formed and of the route's type,
// and an existing document must belong to the caller. Unknown numbers pass
// through so the handlers can answer for them.
func DocumentOwnership(docs DocumentLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentNumber := c.Param("documentNumber")
		if !model.IsDocumentNumber(documentNumber) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid document number"})
			return
		}

		t, err := model.ParseDocumentTypeKey(c.Param("documentType"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown document type"})
			return
		}
		if numberType, _ := model.DocumentTypeFromNumber(documentNumber); numberType != t {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Document number does not match document type"})
			return
		}

		ctx := logger.With(c.Request.Context(), logger.DocumentNumberKey, documentNumber)
		c.Request = c.Request.WithContext(ctx)

		d, err := docs.GetDocument(ctx, documentNumber)
		if err != nil {
			logger.Error(ctx, "failed to load document", "operation", "ownership", "document_number", documentNumber, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": GetRequestID(c),
			})
			return
		}

		id := GetIdentity(c)
		if d != nil && (d.UserPrincipal != id.UserPrincipal || d.ContactID != id.ContactID) {
			logger.Warn(ctx, "document owned by another user", "document_number", documentNumber)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set("document_type", t)
		c.Next()
	}
}

// GetDocumentType gets the document type validated by DocumentOwnership
func GetDocumentType(c *gin.Context) model.DocumentType {
	if t, exists := c.Get("document_type"); exists {
		return t.(model.DocumentType)
	}
	return ""
}
