package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps a service error onto the envelope, hiding internal
// detail behind a generic message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.From(err)
	if ae.Code == apierr.CodeInternal {
		log.Error("Unhandled error", "error", err, "path", c.FullPath())
		RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, nil)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
