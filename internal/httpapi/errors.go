// Package httpapi implements the REST surface of the chat service.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatcore/internal/apperr"
)

// errorEnvelope is the {error:{code, message, details?}} response shape.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.Internal {
		log.Error("internal error", "path", c.FullPath(), "error", appErr.Message)
		c.JSON(http.StatusInternalServerError, errorEnvelope{Error: errorBody{
			Code:    "INTERNAL_ERROR",
			Message: "something went wrong",
		}})
		return
	}
	c.JSON(apperr.HTTPStatus(appErr.Kind), errorEnvelope{Error: errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
	}})
}
