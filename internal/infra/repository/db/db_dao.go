package db

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicated = fmt.Errorf("%w: record already exists", model.ErrInvalidState)

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// translateError 將 gorm 錯誤轉為 domain 錯誤分類
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.NotFound("%s", op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicated)
	default:
		return model.Infra(op, err)
	}
}

// applySort 只接受 columns 中有對應的欄位，最後以 tieBreaker 確保排序穩定
func applySort(tx *gorm.DB, terms []sorting.Term, columns map[sorting.Field]string, tieBreaker string) *gorm.DB {
	for _, t := range terms {
		col, ok := columns[t.Field]
		if !ok {
			continue
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: t.Direction == sorting.Desc})
	}
	return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: tieBreaker}})
}
