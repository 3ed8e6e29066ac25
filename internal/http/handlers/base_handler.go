// README: Base handler utilities (JSON helpers, id validation, error mapping).
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gazflow/internal/modules/dispatch"
	"gazflow/internal/modules/insights"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/pricing"
	"gazflow/internal/modules/profile"
	"gazflow/internal/modules/tracking"
	"gazflow/internal/modules/wallet"
	"gazflow/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts uuids and Firebase uids: up to 128 chars of [A-Za-z0-9_-].
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

// pathID reads and validates a path parameter, writing a 400 when it is bad.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := c.Param(name)
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinel errors to HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, profile.ErrBadRequest),
		errors.Is(err, pricing.ErrUnknownProduct):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrForbidden),
		errors.Is(err, profile.ErrForbidden),
		errors.Is(err, dispatch.ErrForbidden),
		errors.Is(err, tracking.ErrForbidden),
		errors.Is(err, wallet.ErrForbidden),
		errors.Is(err, insights.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrActiveOrder),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, dispatch.ErrDriverUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "request timed out")
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
