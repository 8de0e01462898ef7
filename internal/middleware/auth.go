package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/requestdata"
)

// AuthMiddleware resolves the calling principal from a bearer JWT issued by
// the external identity service. Session management itself lives elsewhere;
// this only verifies and extracts.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), secret: []byte(secret)}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		principal, err := am.parsePrincipal(tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Request = c.Request.WithContext(requestdata.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func (am *AuthMiddleware) parsePrincipal(tokenString string) (requestdata.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil || !token.Valid {
		return requestdata.Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return requestdata.Principal{}, fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return requestdata.Principal{}, err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return requestdata.Principal{}, fmt.Errorf("subject is not a uuid: %w", err)
	}
	isAdmin, _ := claims["admin"].(bool)
	return requestdata.Principal{UserID: userID, IsAdmin: isAdmin}, nil
}

// extractToken accepts the Authorization header or a token query parameter;
// the latter exists because EventSource cannot set headers.
func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
