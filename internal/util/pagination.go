package util

// Meta is the pagination envelope returned alongside every list response.
type Meta struct {
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// Calculate clamps page and limit and returns the row offset. Limit is
// capped at 100 and defaults to 10.
func Calculate(page, limit int) (offset, clampedPage, clampedLimit int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, page, limit
}

func BuildMeta(total int64, page, limit int) Meta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Meta{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
