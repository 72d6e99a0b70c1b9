package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	Username      string `json:"username"`
	UserPrincipal string `json:"userPrincipal"`
	ContactID     string `json:"contactId,omitempty"`
	Email         string `json:"email,omitempty"`
	Admin         bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated user a request acts for.
type Identity struct {
	Username      string
	UserPrincipal string
	ContactID     string
	Email         string
	Admin         bool
}

const identityKey = "identity"

// GenerateToken generates a new JWT token for a user
func GenerateToken(user *config.User, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		Username:      user.Username,
		UserPrincipal: user.UserPrincipal,
		ContactID:     user.ContactID,
		Email:         user.Email,
		Admin:         user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserPrincipal,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// AuthMiddleware validates JWT token and extracts user info
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

		if err != nil || !token.Valid || claims.UserPrincipal == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{
			Username:      claims.Username,
			UserPrincipal: claims.UserPrincipal,
			ContactID:     claims.ContactID,
			Email:         claims.Email,
			Admin:         claims.Admin,
		})

		ctx := logger.With(c.Request.Context(), logger.UserPrincipalKey, claims.UserPrincipal)
		ctx = logger.With(ctx, logger.ContactIDKey, claims.ContactID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetIdentity gets the authenticated identity from context
func GetIdentity(c *gin.Context) Identity {
	if id, exists := c.Get(identityKey); exists {
		return id.(Identity)
	}
	return Identity{}
}
