package commerce

import (
	"context"

	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/domain/review"
)

// SubmitReview stores a review for a catalog product.
func (m *Manager) SubmitReview(ctx context.Context, d review.Draft) (*review.Review, error) {
	if _, ok := m.index[d.ProductID]; !ok {
		return nil, catalog.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.reviews.Submit(ctx, d)
	if err != nil {
		return nil, err
	}
	m.lg.Info("Review submitted",
		zap.String("review_id", r.ID),
		zap.String("product_id", r.ProductID),
		zap.String("status", string(r.Status)),
	)
	return r, nil
}

// Reviews returns the published reviews of productID.
func (m *Manager) Reviews(ctx context.Context, productID string) (review.List, error) {
	return m.reviews.Published(ctx, productID)
}
