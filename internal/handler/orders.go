package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/shiptrack/internal/domain/order"
)

// Orders serves the orders API.
type Orders struct {
	svc *order.Service
}

// NewOrders returns the orders handler.
func NewOrders(svc *order.Service) *Orders {
	return &Orders{svc: svc}
}

func (h *Orders) Register(r gin.IRouter) {
	g := r.Group("/orders")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/all", h.list)
	g.GET("/status/:status", h.listByStatus)
	g.GET("/customer/:email", h.listByEmail)
	g.GET("/:orderId", h.get)
	g.PUT("/:orderId", h.update)
	g.PATCH("/:orderId/status", h.updateStatus)
	g.DELETE("/:orderId", h.delete)
	g.POST("/:orderId/invoice", h.generateInvoice)
}

type createResponse struct {
	OrderID      string                    `json:"orderId"`
	TotalCost    order.Money               `json:"totalCost"`
	Invoice      order.InvoiceOutcome      `json:"invoice"`
	Notification order.NotificationOutcome `json:"notification"`
}

func (h *Orders) create(c *gin.Context) {
	var in order.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createResponse{
		OrderID:      res.Order.ID,
		TotalCost:    res.Order.TotalCost,
		Invoice:      res.Invoice,
		Notification: res.Notification,
	})
}

func (h *Orders) list(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *Orders) listByStatus(c *gin.Context) {
	orders, err := h.svc.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *Orders) listByEmail(c *gin.Context) {
	orders, err := h.svc.ListByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *Orders) get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Orders) update(c *gin.Context) {
	var in order.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.svc.Update(c.Request.Context(), c.Param("orderId"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "order": o})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Orders) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": o})
}

func (h *Orders) delete(c *gin.Context) {
	o, err := h.svc.Delete(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted", "order": o})
}

func (h *Orders) generateInvoice(c *gin.Context) {
	receipt, err := h.svc.GenerateInvoice(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// nonNil keeps empty listings serialised as [] rather than null.
func nonNil(orders []order.Order) []order.Order {
	if orders == nil {
		return []order.Order{}
	}
	return orders
}
