package service

import (
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
)

// ListQuery 列表查詢條件，Order 為排序字串，例如 "createdat desc, id"
type ListQuery struct {
	Page     int
	PageSize int
	Order    string
}

func (q ListQuery) params() paging.Params {
	return paging.New(q.Page, q.PageSize)
}

func (q ListQuery) terms(allow sorting.AllowList, fallback sorting.Term) []sorting.Term {
	return sorting.Parse(q.Order, allow, fallback)
}
