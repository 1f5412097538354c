package commerce

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/domain/newsletter"
	"github.com/aurelius/storefront/internal/pending"
)

// Subscribe validates email and adds it to the newsletter list after the
// newsletter delay. The operation's value reports whether the address was
// new. Popup signups also dismiss the popup.
func (m *Manager) Subscribe(ctx context.Context, email string, src newsletter.Source) (*pending.Op[bool], error) {
	email, err := newsletter.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	return pending.Start(ctx, &m.newsletterGate, m.newsletterDelay, func(ctx context.Context) (bool, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		added, err := m.newsletter.Subscribe(ctx, email, src)
		if err != nil {
			return false, errors.Wrap(err, "subscribe")
		}
		if added {
			m.subscriptions.Add(ctx, 1)
		}
		m.lg.Info("Newsletter signup", zap.Bool("new", added))
		return added, nil
	})
}

// Subscribers returns every subscribed address.
func (m *Manager) Subscribers(ctx context.Context) (newsletter.Subscribers, error) {
	return m.newsletter.Subscribers(ctx)
}

// DismissPopup hides the signup popup for good.
func (m *Manager) DismissPopup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newsletter.DismissPopup(ctx)
}

// PopupDismissed reports whether the popup was dismissed.
func (m *Manager) PopupDismissed(ctx context.Context) bool {
	return m.newsletter.PopupDismissed(ctx)
}
