package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/auth"
	"max.ks1230/billtracker/internal/logger"
)

const userIDKey = "userID"

func requireAuth(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, auth.ErrMissingToken)
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			unauthorized(c, auth.ErrInvalidToken)
			return
		}

		userID, err := tokens.Validate(token)
		if err != nil {
			unauthorized(c, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func unauthorized(c *gin.Context, err error) {
	logger.Debug("request rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()})
}

// currentUser is set by requireAuth.
func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := c.Get(userIDKey); ok {
			fields = append(fields, zap.Stringer("userID", id.(uuid.UUID)))
		}
		logger.Info("http request", fields...)
	}
}
