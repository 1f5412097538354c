package records

import (
	"context"
	"fmt"

	"github.com/aurelius/storefront/internal/domain/review"
	"github.com/aurelius/storefront/internal/storage"
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository keeps every review under storage.KeyReviews.
type ReviewRepository struct {
	gw *storage.Gateway
}

// NewReviewRepository returns a ReviewRepository that uses the given gateway.
func NewReviewRepository(gw *storage.Gateway) *ReviewRepository {
	return &ReviewRepository{gw: gw}
}

// List returns all reviews in submission order.
func (r *ReviewRepository) List(ctx context.Context) (review.List, error) {
	return storage.Read[review.List](ctx, r.gw, storage.KeyReviews), nil
}

// Append adds rv after the existing reviews.
func (r *ReviewRepository) Append(ctx context.Context, rv review.Review) error {
	_, err := storage.Mutate(ctx, r.gw, storage.KeyReviews, func(list review.List) (review.List, error) {
		next := make(review.List, 0, len(list)+1)
		next = append(next, list...)
		return append(next, rv), nil
	})
	if err != nil {
		return fmt.Errorf("appending review %s: %w", rv.ID, err)
	}
	return nil
}
