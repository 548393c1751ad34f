package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string  `json:"error"`
	Code      string  `json:"code"`
	TicketIDs []int64 `json:"ticketIds,omitempty"`
}

// statusOf maps an error kind to its HTTP status
func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindState:
		return http.StatusUnprocessableEntity
	case apperrors.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and their detail is
// not exposed.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusOf(kind)
	body := ErrorResponse{Error: err.Error(), Code: apperrors.CodeOf(err)}

	var unavailable *apperrors.TicketUnavailableError
	if errors.As(err, &unavailable) {
		body.TicketIDs = unavailable.IDs
	}
	if kind == apperrors.KindInternal || kind == apperrors.KindExternal {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		if kind == apperrors.KindInternal {
			body.Error = "internal error"
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "BAD_REQUEST"})
}

// paramInt64 parses a positive int64 path parameter
func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
