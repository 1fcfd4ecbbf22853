package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/Planto/internal/cart"
	"github.com/utafrali/Planto/internal/event"
	"github.com/utafrali/Planto/internal/favorites"
	"github.com/utafrali/Planto/internal/notify"
	"github.com/utafrali/Planto/internal/session"
	apperrors "github.com/utafrali/Planto/pkg/errors"
)

// Messages shown to the shopper.
const (
	MsgCartLoginRequired      = "Please log in to add items to the cart."
	MsgFavoritesLoginRequired = "Please log in to add to favorites."
)

func msgAddedToCart(name string) string      { return fmt.Sprintf("%s added to the cart!", name) }
func msgRemovedFromCart(name string) string  { return fmt.Sprintf("%s removed from the cart.", name) }
func msgAddedToFavorites(name string) string { return fmt.Sprintf("%s added to favorites!", name) }
func msgRemovedFavorites(name string) string { return fmt.Sprintf("%s removed from favorites!", name) }

// DeniedError is returned when an anonymous shopper attempts a mutating
// action. It carries the notification to display and unwraps to
// apperrors.ErrUnauthorized.
type DeniedError struct {
	Notification notify.Notification
}

func (e *DeniedError) Error() string { return e.Notification.Message }

func (e *DeniedError) Unwrap() error { return apperrors.ErrUnauthorized }

// CartResult is the cart after an operation plus the notification it raised.
type CartResult struct {
	Cart         cart.Snapshot
	Item         *cart.LineItem
	Notification *notify.Notification
}

// FavoritesResult is the favorites set after an operation plus the
// notification it raised.
type FavoritesResult struct {
	Favorites    []favorites.Entry
	IsFavorite   bool
	Notification *notify.Notification
}

// StorefrontService performs the shopper's cart and favorites actions. Every
// mutation passes through session.RequireAuth; anonymous shoppers get an
// error notification and no store is touched.
type StorefrontService struct {
	sessions       *session.Registry
	events         EventPublisher
	notifyDuration time.Duration
	logger         *slog.Logger
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(sessions *session.Registry, events EventPublisher, notifyDuration time.Duration, logger *slog.Logger) *StorefrontService {
	if notifyDuration <= 0 {
		notifyDuration = notify.DefaultDuration
	}
	return &StorefrontService{
		sessions:       sessions,
		events:         events,
		notifyDuration: notifyDuration,
		logger:         logger,
	}
}

func (s *StorefrontService) deny(message string) func() error {
	return func() error {
		return &DeniedError{Notification: notify.Build(message, true, s.notifyDuration)}
	}
}

// guard runs action on the principal's session, opening it on first use.
func (s *StorefrontService) guard(p *session.Principal, denied string, action func(*session.Session) error) error {
	return session.RequireAuth(p, func(p *session.Principal) error {
		return action(s.sessions.Open(p.UserID))
	}, s.deny(denied))
}

// --- Cart ---

// Cart returns the shopper's cart. Anonymous shoppers see an empty cart and
// no session is created for them.
func (s *StorefrontService) Cart(p *session.Principal) cart.Snapshot {
	if p == nil || p.UserID == "" {
		return cart.Snapshot{Items: []cart.LineItem{}}
	}
	if sess, ok := s.sessions.Get(p.UserID); ok {
		return sess.Cart.Snapshot()
	}
	return cart.Snapshot{Items: []cart.LineItem{}}
}

// AddToCart adds in to the cart, merging with an existing line of the same
// product and variant.
func (s *StorefrontService) AddToCart(ctx context.Context, p *session.Principal, in cart.AddInput) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		item, changed := sess.Cart.AddToCart(in)
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if !changed {
			return nil
		}
		res.Item = &item
		n := sess.Notifications.Success(msgAddedToCart(item.Name))
		res.Notification = &n
		s.cartUpdated(ctx, sess.UserID, "add", item, res.Cart)
		return nil
	})
	return res, err
}

// Increment adds one to a line. Unknown keys leave the cart unchanged.
func (s *StorefrontService) Increment(ctx context.Context, p *session.Principal, key string) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		item, changed := sess.Cart.Increment(key)
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if changed {
			res.Item = &item
			s.cartUpdated(ctx, sess.UserID, "increment", item, res.Cart)
		}
		return nil
	})
	return res, err
}

// Decrement subtracts one from a line. The cart removes the line when it
// reaches zero, and only then is a notification raised.
func (s *StorefrontService) Decrement(ctx context.Context, p *session.Principal, key string) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		item, changed := sess.Cart.Decrement(key)
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if !changed {
			return nil
		}
		res.Item = &item
		if item.Quantity == 0 {
			n := sess.Notifications.Success(msgRemovedFromCart(item.Name))
			res.Notification = &n
		}
		s.cartUpdated(ctx, sess.UserID, "decrement", item, res.Cart)
		return nil
	})
	return res, err
}

// SetQty sets a line's quantity; n <= 0 removes the line.
func (s *StorefrontService) SetQty(ctx context.Context, p *session.Principal, key string, n int) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		item, changed := sess.Cart.SetQty(key, n)
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if changed {
			res.Item = &item
			s.cartUpdated(ctx, sess.UserID, "set_quantity", item, res.Cart)
		}
		return nil
	})
	return res, err
}

// RemoveItem drops a line.
func (s *StorefrontService) RemoveItem(ctx context.Context, p *session.Principal, key string) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		item, removed := sess.Cart.RemoveFromCart(key)
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if !removed {
			return nil
		}
		item.Quantity = 0
		res.Item = &item
		n := sess.Notifications.Success(msgRemovedFromCart(item.Name))
		res.Notification = &n
		s.cartUpdated(ctx, sess.UserID, "remove", item, res.Cart)
		return nil
	})
	return res, err
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context, p *session.Principal) (*CartResult, error) {
	var res *CartResult
	err := s.guard(p, MsgCartLoginRequired, func(sess *session.Session) error {
		removed := sess.Cart.ClearCart()
		res = &CartResult{Cart: sess.Cart.Snapshot()}
		if removed > 0 {
			if err := s.events.PublishCartCleared(ctx, sess.UserID, removed); err != nil {
				s.logPublishError(ctx, event.TopicCartCleared, sess.UserID, err)
			}
		}
		return nil
	})
	return res, err
}

func (s *StorefrontService) cartUpdated(ctx context.Context, userID, action string, item cart.LineItem, snap cart.Snapshot) {
	err := s.events.PublishCartUpdated(ctx, event.CartUpdatedData{
		UserID:   userID,
		Action:   action,
		LineKey:  item.Key,
		Quantity: item.Quantity,
		TotalQty: snap.TotalQty,
		Subtotal: snap.Subtotal,
	})
	if err != nil {
		s.logPublishError(ctx, event.TopicCartUpdated, userID, err)
	}
}

// --- Favorites ---

// Favorites lists the shopper's favorites; empty for anonymous shoppers.
func (s *StorefrontService) Favorites(p *session.Principal) []favorites.Entry {
	if p == nil || p.UserID == "" {
		return []favorites.Entry{}
	}
	if sess, ok := s.sessions.Get(p.UserID); ok {
		return sess.Favorites.List()
	}
	return []favorites.Entry{}
}

// IsFavorite reports whether id is among the shopper's favorites.
func (s *StorefrontService) IsFavorite(p *session.Principal, id string) bool {
	if p == nil || p.UserID == "" {
		return false
	}
	sess, ok := s.sessions.Get(p.UserID)
	return ok && sess.Favorites.IsFavorite(id)
}

// ToggleFavorite adds the product when absent and removes it otherwise.
func (s *StorefrontService) ToggleFavorite(ctx context.Context, p *session.Principal, entry favorites.Entry) (*FavoritesResult, error) {
	var res *FavoritesResult
	err := s.guard(p, MsgFavoritesLoginRequired, func(sess *session.Session) error {
		if entry.ID == "" {
			res = &FavoritesResult{Favorites: sess.Favorites.List()}
			return nil
		}
		isFavorite := sess.Favorites.ToggleFavorite(entry)
		res = &FavoritesResult{Favorites: sess.Favorites.List(), IsFavorite: isFavorite}

		msg := msgRemovedFavorites(entry.Name)
		if isFavorite {
			msg = msgAddedToFavorites(entry.Name)
		}
		n := sess.Notifications.Success(msg)
		res.Notification = &n
		s.favoritesUpdated(ctx, sess, entry.ID, isFavorite)
		return nil
	})
	return res, err
}

// RemoveFavorite drops id from the favorites.
func (s *StorefrontService) RemoveFavorite(ctx context.Context, p *session.Principal, id string) (*FavoritesResult, error) {
	var res *FavoritesResult
	err := s.guard(p, MsgFavoritesLoginRequired, func(sess *session.Session) error {
		entry, removed := sess.Favorites.RemoveFavorite(id)
		res = &FavoritesResult{Favorites: sess.Favorites.List()}
		if !removed {
			return nil
		}
		n := sess.Notifications.Success(msgRemovedFavorites(entry.Name))
		res.Notification = &n
		s.favoritesUpdated(ctx, sess, id, false)
		return nil
	})
	return res, err
}

// ClearFavorites empties the favorites.
func (s *StorefrontService) ClearFavorites(ctx context.Context, p *session.Principal) (*FavoritesResult, error) {
	var res *FavoritesResult
	err := s.guard(p, MsgFavoritesLoginRequired, func(sess *session.Session) error {
		if sess.Favorites.ClearFavorites() > 0 {
			s.favoritesUpdated(ctx, sess, "", false)
		}
		res = &FavoritesResult{Favorites: sess.Favorites.List()}
		return nil
	})
	return res, err
}

func (s *StorefrontService) favoritesUpdated(ctx context.Context, sess *session.Session, productID string, favorited bool) {
	err := s.events.PublishFavoritesUpdated(ctx, event.FavoritesUpdatedData{
		UserID:    sess.UserID,
		ProductID: productID,
		Favorited: favorited,
		Count:     sess.Favorites.Len(),
	})
	if err != nil {
		s.logPublishError(ctx, event.TopicFavoritesUpdated, sess.UserID, err)
	}
}

// --- Notifications ---

// Notifications returns the shopper's undismissed notifications.
func (s *StorefrontService) Notifications(p *session.Principal) []notify.Notification {
	if p == nil || p.UserID == "" {
		return []notify.Notification{}
	}
	if sess, ok := s.sessions.Get(p.UserID); ok {
		return sess.Notifications.Active()
	}
	return []notify.Notification{}
}

// DismissNotification removes a notification before its timer fires.
func (s *StorefrontService) DismissNotification(p *session.Principal, id string) bool {
	if p == nil || p.UserID == "" {
		return false
	}
	sess, ok := s.sessions.Get(p.UserID)
	return ok && sess.Notifications.Dismiss(id)
}

func (s *StorefrontService) logPublishError(ctx context.Context, topic, userID string, err error) {
	s.logger.ErrorContext(ctx, "failed to publish event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
}
