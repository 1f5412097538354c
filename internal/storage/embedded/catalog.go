// Package embedded serves the static product catalog from a JSON document
// decoded once at startup.
package embedded

import (
	"context"
	"encoding/json"
	"os"
	"slices"

	"github.com/go-faster/errors"

	"github.com/aurelius/storefront/db"
	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/pkg/validate"
)

var _ catalog.Repository = (*CatalogRepository)(nil)

type document struct {
	Products []catalog.Product `json:"products"`
	FAQs     []catalog.FAQItem `json:"faqs"`
}

// CatalogRepository implements catalog.Repository over an immutable product
// list held in memory.
type CatalogRepository struct {
	products []catalog.Product
	byID     map[string]int
	bySlug   map[string]int
	faqs     []catalog.FAQItem
}

// NewCatalogRepository decodes the catalog compiled into the binary.
func NewCatalogRepository() (*CatalogRepository, error) {
	return Load(db.Catalog)
}

// LoadFile decodes a catalog document from path.
func LoadFile(path string) (*CatalogRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}
	return Load(data)
}

// Load decodes and validates a catalog document. Product ids and slugs must be
// unique and every product needs at least one image.
func Load(data []byte) (*CatalogRepository, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	if err := validate.Each(doc.Products); err != nil {
		return nil, errors.Wrap(err, "validate catalog")
	}

	r := &CatalogRepository{
		products: doc.Products,
		byID:     make(map[string]int, len(doc.Products)),
		bySlug:   make(map[string]int, len(doc.Products)),
		faqs:     doc.FAQs,
	}
	for i, p := range doc.Products {
		if p.Price.IsNegative() {
			return nil, errors.Errorf("product %s: negative price", p.ID)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %q", p.ID)
		}
		if _, dup := r.bySlug[p.Slug]; dup {
			return nil, errors.Errorf("duplicate product slug %q", p.Slug)
		}
		r.byID[p.ID] = i
		r.bySlug[p.Slug] = i
	}
	return r, nil
}

// List returns all products in declaration order.
func (r *CatalogRepository) List(_ context.Context) ([]catalog.Product, error) {
	return slices.Clone(r.products), nil
}

// GetByID returns a single product by its identifier.
func (r *CatalogRepository) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

// GetBySlug returns a single product by its URL slug.
func (r *CatalogRepository) GetBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	i, ok := r.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

// FAQs returns the help page entries.
func (r *CatalogRepository) FAQs(_ context.Context) ([]catalog.FAQItem, error) {
	return slices.Clone(r.faqs), nil
}
