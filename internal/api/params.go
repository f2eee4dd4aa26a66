package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/domain"
)

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", domain.ErrValidation)
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter. Missing yields 0.
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return v, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", domain.ErrValidation, name)
	}
	return v, nil
}

// page reads limit and offset, capping limit at the configured maximum.
func (s *Server) page(c *gin.Context) (database.Page, error) {
	limit, err := queryInt64(c, "limit")
	if err != nil {
		return database.Page{}, err
	}
	offset, err := queryInt64(c, "offset")
	if err != nil {
		return database.Page{}, err
	}
	if s.cfg.MaxPageSize > 0 && limit > int64(s.cfg.MaxPageSize) {
		limit = int64(s.cfg.MaxPageSize)
	}
	return database.Page{Limit: int(limit), Offset: int(offset)}, nil
}
