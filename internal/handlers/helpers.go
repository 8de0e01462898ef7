package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benetrust/trustadmin-backend/internal/requestdata"
)

func principalFrom(c *gin.Context) (requestdata.Principal, bool) {
	principal, ok := requestdata.GetPrincipal(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return requestdata.Principal{}, false
	}
	return principal, true
}
