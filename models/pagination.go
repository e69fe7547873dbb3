package models

// Pagination carries the skip/limit pair of a listing request. Both values
// must be non-negative and limit must be positive; the handlers reject
// anything else before the services run.
type Pagination struct {
	Skip  int64
	Limit int64
}

// PageInfo is the pagination metadata attached to listing responses.
// Prev and Next are page numbers and are null at the edges.
type PageInfo struct {
	TotalDocuments int64  `json:"totalDocuments"`
	TotalPages     int64  `json:"totalPages"`
	Page           int64  `json:"page"`
	Prev           *int64 `json:"prev"`
	Next           *int64 `json:"next"`
}

// NewPageInfo computes the page metadata for a listing:
// totalPages = ceil(total/limit), page = ceil(skip/limit) + 1.
func NewPageInfo(total int64, p Pagination) PageInfo {
	info := PageInfo{TotalDocuments: total}
	if p.Limit <= 0 {
		return info
	}

	info.TotalPages = (total + p.Limit - 1) / p.Limit
	info.Page = (p.Skip+p.Limit-1)/p.Limit + 1

	if info.Page > 1 {
		prev := info.Page - 1
		info.Prev = &prev
	}
	if info.Page < info.TotalPages {
		next := info.Page + 1
		info.Next = &next
	}
	return info
}
