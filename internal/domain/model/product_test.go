package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductUpdate(t *testing.T) {
	p, err := NewProduct("Widget", "", decimal.NewFromInt(10), "misc", "", Rating{})
	require.NoError(t, err)
	require.Nil(t, p.UpdatedAt)

	err = p.Update("Widget Pro", "better", decimal.NewFromInt(15), "tools", "https://img/w.png", Rating{Rate: decimal.RequireFromString("4.2"), Count: 8})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", p.Title)
	assert.Equal(t, "tools", p.Category)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
	assert.NotNil(t, p.UpdatedAt)

	err = p.Update("", "", decimal.Zero, "tools", "", Rating{Rate: decimal.NewFromInt(6)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3)
	assert.Equal(t, "Widget Pro", p.Title)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
}
