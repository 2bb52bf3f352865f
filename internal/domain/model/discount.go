package model

import "github.com/shopspring/decimal"

const (
	MinItemQuantity = 1
	MaxItemQuantity = 20

	tenPercentMinQuantity    = 4
	twentyPercentMinQuantity = 10
)

var (
	tenPercent    = decimal.RequireFromString("0.10")
	twentyPercent = decimal.RequireFromString("0.20")
)

// CalculateDiscount 依購買數量分級計算折扣
//
//	1-3   : 無折扣
//	4-9   : 10%
//	10-20 : 20%
//
// 數量超出 1-20 由 CartItem 驗證擋下，不在此處理
func CalculateDiscount(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	switch {
	case quantity >= twentyPercentMinQuantity:
		return gross.Mul(twentyPercent)
	case quantity >= tenPercentMinQuantity:
		return gross.Mul(tenPercent)
	default:
		return decimal.Zero
	}
}
