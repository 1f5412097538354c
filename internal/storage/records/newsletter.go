package records

import (
	"context"
	"fmt"

	"github.com/aurelius/storefront/internal/domain/newsletter"
	"github.com/aurelius/storefront/internal/storage"
)

var _ newsletter.Repository = (*NewsletterRepository)(nil)

// NewsletterRepository keeps subscribers under storage.KeySubscribers and the
// popup flag under storage.KeyPopupDismissed.
type NewsletterRepository struct {
	gw *storage.Gateway
}

// NewNewsletterRepository returns a NewsletterRepository that uses the given gateway.
func NewNewsletterRepository(gw *storage.Gateway) *NewsletterRepository {
	return &NewsletterRepository{gw: gw}
}

// Add stores email unless it is already subscribed.
func (r *NewsletterRepository) Add(ctx context.Context, email string) (bool, error) {
	var added bool
	_, err := storage.Mutate(ctx, r.gw, storage.KeySubscribers, func(subs newsletter.Subscribers) (newsletter.Subscribers, error) {
		var next newsletter.Subscribers
		next, added = subs.Add(email)
		return next, nil
	})
	if err != nil {
		return false, fmt.Errorf("adding subscriber: %w", err)
	}
	return added, nil
}

// List returns the subscribed addresses.
func (r *NewsletterRepository) List(ctx context.Context) (newsletter.Subscribers, error) {
	return storage.Read[newsletter.Subscribers](ctx, r.gw, storage.KeySubscribers), nil
}

// DismissPopup sets the popup flag.
func (r *NewsletterRepository) DismissPopup(ctx context.Context) error {
	if err := storage.Write(ctx, r.gw, storage.KeyPopupDismissed, true); err != nil {
		return fmt.Errorf("dismissing popup: %w", err)
	}
	return nil
}

// PopupDismissed reports whether the flag is present. Only presence matters.
func (r *NewsletterRepository) PopupDismissed(ctx context.Context) bool {
	return r.gw.Has(ctx, storage.KeyPopupDismissed)
}
