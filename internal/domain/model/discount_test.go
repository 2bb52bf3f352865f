package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateDiscount(t *testing.T) {
	price := decimal.RequireFromString("12.50")
	tests := []struct {
		quantity int
		want     string
	}{
		{1, "0"},
		{3, "0"},
		{4, "5"},
		{9, "11.25"},
		{10, "25"},
		{20, "50"},
	}
	for _, tt := range tests {
		got := CalculateDiscount(tt.quantity, price)
		assert.Truef(t, got.Equal(decimal.RequireFromString(tt.want)),
			"quantity %d: want %s, got %s", tt.quantity, tt.want, got)
	}
}
