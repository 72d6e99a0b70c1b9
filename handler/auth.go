package handler

import (
	"net/http"

	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/middleware"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token         string `json:"token"`
	ExpiresAt     string `json:"expires_at"`
	Username      string `json:"username"`
	UserPrincipal string `json:"user_principal"`
	ContactID     string `json:"contact_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Admin         bool   `json:"admin,omitempty"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user := h.config.FindUser(req.Username)
	if user == nil || user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:         token,
		ExpiresAt:     expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		Username:      user.Username,
		UserPrincipal: user.UserPrincipal,
		ContactID:     user.ContactID,
		Email:         user.Email,
		Admin:         user.Admin,
	})
}

// GetCurrentUser returns the current user info
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	id := middleware.GetIdentity(c)

	c.JSON(http.StatusOK, gin.H{
		"username":       id.Username,
		"user_principal": id.UserPrincipal,
		"contact_id":     id.ContactID,
		"email":          id.Email,
		"admin":          id.Admin,
	})
}
