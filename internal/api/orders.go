package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techretail/retailbot/internal/domain"
)

// ordersByUser lists the orders of a Telegram user, newest first. The
// user_id parameter is the Telegram id, not the internal one.
func (s *Server) ordersByUser(c *gin.Context) {
	telegramID, err := queryInt64(c, "user_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if telegramID == 0 {
		s.badRequest(c, "user_id is required")
		return
	}

	orders, err := s.store.ListOrdersByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.Order]{Count: len(orders), Results: orders})
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	order, err := s.store.GetOrder(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderRequest is the body of PATCH /api/orders/{id}/.
type UpdateOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "status is required")
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	order, err := s.store.UpdateOrderStatus(c.Request.Context(), id, status)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if err := s.store.DeleteOrder(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// cancelOrder is idempotent: cancelling a cancelled order returns it unchanged.
func (s *Server) cancelOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	order, err := s.store.CancelOrder(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) removeItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	order, err := s.store.RemoveItem(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
