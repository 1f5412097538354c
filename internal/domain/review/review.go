// Package review handles customer product reviews. Submitted reviews wait in
// pending state; only published ones are shown.
package review

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurelius/storefront/pkg/validate"
)

// Status is the moderation state of a review.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// Review is a rating and comment left on a product.
type Review struct {
	ID        string    `json:"id" validate:"required"`
	ProductID string    `json:"productId" validate:"required"`
	Author    string    `json:"author" validate:"required"`
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Date      time.Time `json:"date"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
	Status    Status    `json:"status" validate:"oneof=pending published"`
}

// List holds every stored review regardless of status.
type List []Review

// Validate checks every stored review.
func (l List) Validate() error {
	return validate.Each(l)
}

// Published returns the published reviews for productID in submission order.
func (l List) Published(productID string) List {
	out := make(List, 0)
	for _, r := range l {
		if r.ProductID == productID && r.Status == StatusPublished {
			out = append(out, r)
		}
	}
	return out
}

// AverageRating returns the mean rating rounded to one decimal place, or zero
// for no reviews.
func AverageRating(reviews List) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := int64(0)
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
}

// Draft is the reviewer's input.
type Draft struct {
	ProductID string `json:"productId" validate:"required"`
	Author    string `json:"author" validate:"required"`
	Rating    int    `json:"rating" validate:"gte=1,lte=5"`
	Comment   string `json:"comment"`
	Verified  bool   `json:"verified"`
	// Status defaults to pending.
	Status Status `json:"status" validate:"omitempty,oneof=pending published"`
}

// Repository stores reviews.
type Repository interface {
	List(ctx context.Context) (List, error)
	Append(ctx context.Context, r Review) error
}

// Service submits and lists reviews.
type Service struct {
	reviews Repository
	now     func() time.Time
	newID   func() string
}

// NewService creates a review Service backed by reviews.
func NewService(reviews Repository) *Service {
	return &Service{
		reviews: reviews,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Submit validates d and stores it as a new review.
func (s *Service) Submit(ctx context.Context, d Draft) (*Review, error) {
	d.Author = strings.TrimSpace(d.Author)
	d.Comment = strings.TrimSpace(d.Comment)
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = StatusPending
	}

	r := Review{
		ID:        s.newID(),
		ProductID: d.ProductID,
		Author:    d.Author,
		Rating:    d.Rating,
		Date:      s.now().UTC(),
		Comment:   d.Comment,
		Verified:  d.Verified,
		Status:    d.Status,
	}
	if err := s.reviews.Append(ctx, r); err != nil {
		return nil, errors.Wrap(err, "store review")
	}
	return &r, nil
}

// Published returns the visible reviews for productID.
func (s *Service) Published(ctx context.Context, productID string) (List, error) {
	all, err := s.reviews.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return all.Published(productID), nil
}
