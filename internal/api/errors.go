package api

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
)

// writeError maps err to a status. Domain errors are client errors; codes in
// notFound are reported as 404 instead.
func writeError(c *gin.Context, err error, notFound ...string) {
	code := customerr.Code(err)
	if !customerr.IsDomain(err) {
		logger.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: code, Message: "internal error"})
		return
	}

	status := http.StatusBadRequest
	if slices.Contains(notFound, code) {
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error()})
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "resource not found"})
}
