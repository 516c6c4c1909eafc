// Package handler exposes the services over HTTP with gin.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/domain/invoice"
	"github.com/xenking/shiptrack/internal/domain/notification"
	"github.com/xenking/shiptrack/internal/domain/order"
	"github.com/xenking/shiptrack/internal/domain/verification"
	"github.com/xenking/shiptrack/pkg/health"
)

// Registrar mounts a service's routes.
type Registrar interface {
	Register(r gin.IRouter)
}

// NewRouter builds a gin engine with the probe endpoints and the given
// service routes. Cross-cutting concerns live in pkg/httpmiddleware and wrap
// the returned engine.
func NewRouter(h *health.Health, services ...Registrar) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	r.GET("/livez", gin.WrapF(h.LiveEndpoint))
	r.GET("/readyz", gin.WrapF(h.ReadyEndpoint))
	r.GET("/health", gin.WrapF(h.StatusEndpoint))

	for _, s := range services {
		s.Register(r)
	}
	return r
}

// writeError maps domain errors onto HTTP responses. Validation problems are
// 400, unknown records 404, everything else 500 with the cause only logged.
func writeError(c *gin.Context, err error) {
	var (
		orderErr  *order.ValidationError
		notifyErr *notification.ValidationError
		verifyErr *verification.ValidationError
	)
	switch {
	case errors.As(err, &orderErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": orderErr.Fields})
	case errors.As(err, &notifyErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": notifyErr.Problems})
	case errors.As(err, &verifyErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verifyErr.Problems})
	case errors.Is(err, order.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "validStatuses": order.Statuses})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, invoice.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, artifact.ErrNotFound), errors.Is(err, artifact.ErrInvalidKey):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, artifact.ErrBadSignature):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired link"})
	default:
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// badRequest reports a malformed body.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}
