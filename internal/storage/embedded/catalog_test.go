package embedded

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelius/storefront/internal/domain/catalog"
)

func TestNewCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := NewCatalogRepository()
	require.NoError(t, err)

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, "1", products[0].ID)
	assert.True(t, decimal.NewFromInt(349).Equal(products[0].Price))
	assert.Equal(t, []string{"40", "41", "42", "43", "44", "45"}, products[0].Sizes)
	assert.True(t, products[0].Bestseller)
	assert.Len(t, products[1].Colors, 2)

	p, err := repo.GetBySlug(ctx, "navigator-shades-gold")
	require.NoError(t, err)
	assert.Equal(t, "4", p.ID)
	assert.Equal(t, catalog.CategorySunglasses, p.Category)

	_, err = repo.GetByID(ctx, "404")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	faqs, err := repo.FAQs(ctx)
	require.NoError(t, err)
	assert.Len(t, faqs, 4)
}

func TestCatalogRepository_ListReturnsCopy(t *testing.T) {
	repo, err := NewCatalogRepository()
	require.NoError(t, err)

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	products[0].Name = "mutated"

	p, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Onyx Oxford Brogues", p.Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "malformed JSON",
			data:    `{"products": [`,
			wantErr: "parse catalog JSON",
		},
		{
			name:    "missing images",
			data:    `{"products":[{"id":"1","slug":"a","name":"A","price":1,"category":"shoes","images":[]}]}`,
			wantErr: "images",
		},
		{
			name:    "unknown category",
			data:    `{"products":[{"id":"1","slug":"a","name":"A","price":1,"category":"hats","images":["x"]}]}`,
			wantErr: "category",
		},
		{
			name: "duplicate id",
			data: `{"products":[
				{"id":"1","slug":"a","name":"A","price":1,"category":"shoes","images":["x"]},
				{"id":"1","slug":"b","name":"B","price":1,"category":"shoes","images":["x"]}]}`,
			wantErr: "duplicate product id",
		},
		{
			name: "duplicate slug",
			data: `{"products":[
				{"id":"1","slug":"a","name":"A","price":1,"category":"shoes","images":["x"]},
				{"id":"2","slug":"a","name":"B","price":1,"category":"shoes","images":["x"]}]}`,
			wantErr: "duplicate product slug",
		},
		{
			name:    "negative price",
			data:    `{"products":[{"id":"1","slug":"a","name":"A","price":-5,"category":"shoes","images":["x"]}]}`,
			wantErr: "negative price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
