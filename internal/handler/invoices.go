package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/domain/invoice"
	"github.com/xenking/shiptrack/internal/domain/order"
)

// Invoices serves invoice generation, replica ingestion and stored PDFs.
type Invoices struct {
	svc   *invoice.Service
	files *Files
}

// NewInvoices returns the invoices handler.
func NewInvoices(svc *invoice.Service, artifacts artifact.Store) *Invoices {
	return &Invoices{svc: svc, files: NewFiles(artifacts)}
}

func (h *Invoices) Register(r gin.IRouter) {
	r.POST("/invoices/generate/:orderId", h.generate)
	r.POST("/orders", h.receive)
	h.files.Register(r)
}

func (h *Invoices) generate(c *gin.Context) {
	res, err := h.svc.Generate(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Invoices) receive(c *gin.Context) {
	var o order.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		badRequest(c, err)
		return
	}
	if o.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	if err := h.svc.Receive(c.Request.Context(), &o); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order received", "orderId": o.ID})
}
