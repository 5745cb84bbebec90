package api

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// parsePagination clamps the limit to [1, maxPageSize] and the offset to
// non-negative values. Missing values fall back to the defaults.
func parsePagination(limit, offset *int) (int64, int64) {
	l, o := int64(defaultPageSize), int64(0)
	if limit != nil {
		l = min(max(int64(*limit), 1), maxPageSize)
	}
	if offset != nil {
		o = max(int64(*offset), 0)
	}
	return l, o
}

type PaginationMeta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func buildPaginationMeta(total, limit, offset int64) PaginationMeta {
	return PaginationMeta{
		Total:   int(total),
		Limit:   int(limit),
		Offset:  int(offset),
		HasMore: offset+limit < total,
	}
}
