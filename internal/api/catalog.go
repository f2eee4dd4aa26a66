package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/domain"
)

func (s *Server) listProducts(c *gin.Context) {
	page, err := s.page(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	filter := database.ProductFilter{Page: page, Search: c.Query("search")}

	category, err := queryInt64(c, "category")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if category > 0 {
		filter.CategoryID = &category
	}
	if filter.InStock, err = queryBool(c, "in_stock"); err != nil {
		s.abortWithError(c, err)
		return
	}

	products, total, err := s.store.ListProducts(c.Request.Context(), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.Product]{Count: total, Results: products})
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	product, err := s.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ReserveRequest is the body of POST /api/products/{id}/reserve/.
type ReserveRequest struct {
	domain.Identity
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

func (s *Server) reserveProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "telegram_id and a positive integer quantity are required")
		return
	}

	order, err := s.store.Reserve(c.Request.Context(), id, req.Quantity, req.Identity)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) listFAQs(c *gin.Context) {
	page, err := s.page(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	faqs, total, err := s.store.ListFAQs(c.Request.Context(), page)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.FAQ]{Count: total, Results: faqs})
}
