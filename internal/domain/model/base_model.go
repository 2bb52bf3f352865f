package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 關聯式資料表共用欄位，DeletedAt 讓刪除成為軟刪除
// 軟刪除的資料不會被預設查詢取得，對 reconciliation 來說等同已不存在
type BaseModel struct {
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt *time.Time     `gorm:"null" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
