package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category groups products on the shop floor.
type Category string

const (
	CategoryShoes      Category = "shoes"
	CategoryWallets    Category = "wallets"
	CategoryBelts      Category = "belts"
	CategorySunglasses Category = "sunglasses"
	CategoryBracelets  Category = "bracelets"

	// CategoryAll selects every category when filtering.
	CategoryAll Category = "all"
)

// Categories lists the concrete categories in navigation order.
var Categories = []Category{
	CategoryShoes,
	CategoryWallets,
	CategoryBelts,
	CategorySunglasses,
	CategoryBracelets,
}

// Valid reports whether c is a concrete category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	Slug        string          `json:"slug" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category" validate:"required,oneof=shoes wallets belts sunglasses bracelets"`
	Images      []string        `json:"images" validate:"required,min=1,dive,required"`
	Description string          `json:"description"`
	Details     []string        `json:"details"`
	Materials   string          `json:"materials"`
	Bestseller  bool            `json:"isBestseller,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []Color         `json:"colors,omitempty"`
}

// Color is a named swatch a product is offered in.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// FAQItem is a static question/answer pair shown on the help page.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	FAQs(ctx context.Context) ([]FAQItem, error)
}
