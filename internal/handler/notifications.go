package handler

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/xenking/shiptrack/internal/domain/notification"
	"github.com/xenking/shiptrack/internal/domain/order"
)

// Notifications serves the notifications API.
type Notifications struct {
	svc       *notification.Service
	testEmail string
}

// NewNotifications returns the notifications handler. testEmail is the
// recipient of POST /test-notification when the body names none.
func NewNotifications(svc *notification.Service, testEmail string) *Notifications {
	return &Notifications{svc: svc, testEmail: testEmail}
}

func (h *Notifications) Register(r gin.IRouter) {
	r.POST("/notify", h.notify)
	r.POST("/test-notification", h.test)
}

func (h *Notifications) notify(c *gin.Context) {
	var req notification.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.send(c, req)
}

type testRequest struct {
	Email string `json:"email"`
}

func (h *Notifications) test(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = h.testEmail
	}

	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	h.send(c, notification.Request{
		OrderID:       "TEST-" + strings.ToUpper(hex.EncodeToString(suffix[:])),
		CustomerEmail: email,
		Status:        string(order.StatusReceived),
		CustomerName:  "Test Customer",
	})
}

func (h *Notifications) send(c *gin.Context, req notification.Request) {
	res, err := h.svc.Notify(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusBadGateway, gin.H{
			"message": "Failed to send notification",
			"success": false,
			"details": res,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Notification sent",
		"success": true,
		"details": res,
	})
}
