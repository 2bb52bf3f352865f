package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	data, err := ParseSeed([]byte(`
branches:
  - name: Downtown
  - name: Airport
products:
  - title: Widget
    price: "9.99"
    category: misc
    rating:
      rate: "4.5"
      count: 3
`))
	require.NoError(t, err)
	require.Len(t, data.Branches, 2)
	require.Len(t, data.Products, 1)
	require.Empty(t, data.Users)

	p, err := seedProduct(data.Products[0])
	require.NoError(t, err)
	require.Equal(t, "9.99", p.Price.String())
	require.Equal(t, "4.5", p.Rating.Rate.String())
	require.Equal(t, 3, p.Rating.Count)
}

func TestSeedProduct_InvalidPrice(t *testing.T) {
	_, err := seedProduct(SeedProduct{Title: "x", Price: "abc", Category: "c"})
	require.Error(t, err)

	_, err = seedProduct(SeedProduct{Title: "x", Price: "-1", Category: "c"})
	require.Error(t, err)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("does-not-exist.yaml")
	require.Error(t, err)
}
