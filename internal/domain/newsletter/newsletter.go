// Package newsletter manages the subscriber list and the signup popup flag.
package newsletter

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"github.com/aurelius/storefront/pkg/validate"
)

// Subscribers is the set of subscribed addresses in signup order.
type Subscribers []string

// Contains reports whether email is already subscribed.
func (s Subscribers) Contains(email string) bool {
	return slices.Contains(s, email)
}

// Add returns s with email appended unless it is already present.
func (s Subscribers) Add(email string) (Subscribers, bool) {
	if s.Contains(email) {
		return s, false
	}
	out := make(Subscribers, 0, len(s)+1)
	out = append(out, s...)
	return append(out, email), true
}

// Validate checks that the stored list is a set of addresses.
func (s Subscribers) Validate() error {
	return validate.Var("subscribers", []string(s), "unique,dive,required,email")
}

// Source identifies where a signup came from.
type Source int

const (
	SourceFooter Source = iota
	// SourcePopup signups also dismiss the popup.
	SourcePopup
)

// Repository stores subscribers and the popup flag.
type Repository interface {
	// Add stores email, reporting false if it was already subscribed.
	Add(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) (Subscribers, error)
	DismissPopup(ctx context.Context) error
	PopupDismissed(ctx context.Context) bool
}

// Service handles newsletter signups.
type Service struct {
	repo Repository
}

// NewService creates a newsletter Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NormalizeEmail trims email and checks that it is a valid address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var("email", email, "required,email"); err != nil {
		return "", err
	}
	return email, nil
}

// Subscribe adds email to the list. Subscribing twice is not an error; the
// returned bool is false for a repeat signup.
func (s *Service) Subscribe(ctx context.Context, email string, src Source) (bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}

	added, err := s.repo.Add(ctx, email)
	if err != nil {
		return false, errors.Wrap(err, "add subscriber")
	}
	if src == SourcePopup {
		if err := s.repo.DismissPopup(ctx); err != nil {
			return added, errors.Wrap(err, "dismiss popup")
		}
	}
	return added, nil
}

// Subscribers returns every subscribed address.
func (s *Service) Subscribers(ctx context.Context) (Subscribers, error) {
	return s.repo.List(ctx)
}

// DismissPopup records that the popup should not be shown again.
func (s *Service) DismissPopup(ctx context.Context) error {
	return s.repo.DismissPopup(ctx)
}

// PopupDismissed reports whether the popup was dismissed.
func (s *Service) PopupDismissed(ctx context.Context) bool {
	return s.repo.PopupDismissed(ctx)
}
