package model

import "time"

type FinalizationStatus string

const (
	FinalizationPending  FinalizationStatus = "pending"
	FinalizationDone     FinalizationStatus = "done"
	FinalizationOrphaned FinalizationStatus = "orphaned"
)

// CartFinalization 與訂單同一個 transaction 寫入的標記
// pending 表示訂單已提交但購物車 (redis) 尚未確認 Finalized，由 sweeper 補完
type CartFinalization struct {
	CartID    string             `gorm:"primaryKey;type:varchar(36)" json:"cart_id"`
	OrderID   string             `gorm:"not null;type:varchar(36)" json:"order_id"`
	Status    FinalizationStatus `gorm:"not null;type:varchar(16);index" json:"status"`
	Attempts  int                `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time          `gorm:"not null" json:"updated_at"`
}

func (CartFinalization) TableName() string {
	return "cart_finalizations"
}
