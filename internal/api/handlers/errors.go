package handlers

import (
	"errors"
	"net/http"

	"magnova-scm-api-server/internal/api/middleware"
	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/auth"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalid:          http.StatusBadRequest,
	apperr.KindUnauthorized:     http.StatusUnauthorized,
	apperr.KindForbidden:        http.StatusForbidden,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindConflict:         http.StatusConflict,
	apperr.KindInvalidReference: http.StatusUnprocessableEntity,
	apperr.KindBudgetExceeded:   http.StatusUnprocessableEntity,
}

// StatusFor maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusFor(kind apperr.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": kind, "message", "details"} and records it for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	body := gin.H{"error": kind.String()}

	var ae *apperr.Error
	switch {
	case kind == apperr.KindInternal:
		body["message"] = "internal server error"
	case errors.As(err, &ae):
		body["message"] = ae.Message
		if len(ae.Details) > 0 {
			body["details"] = ae.Details
		}
	default:
		body["message"] = err.Error()
	}
	c.AbortWithStatusJSON(StatusFor(kind), body)
}

// bindJSON decodes the request body into v, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperr.Invalid("malformed request body: %v", err))
		return false
	}
	return true
}

// principal returns the authenticated caller or answers 401.
func principal(c *gin.Context) (auth.Principal, bool) {
	pr, ok := middleware.Principal(c)
	if !ok {
		respondError(c, apperr.Unauthorized("authentication required"))
	}
	return pr, ok
}
