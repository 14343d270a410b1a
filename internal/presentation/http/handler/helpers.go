package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/pkg/pagination"
)

// parsePagination extracts page-based pagination params from the query string
func parsePagination(c *gin.Context) *pagination.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	return &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}
}

// parseDateRange reads start_date/end_date query params, defaulting to the
// last 30 days ending today.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	start := now.AddDate(0, 0, -29)
	end := now

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, false
		}
		start = parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, false
		}
		end = parsed
	}
	return start, end, true
}
