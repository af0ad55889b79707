package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/mail"
	"github.com/jackson0tr/lerko-backend/internal/payment"
	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// OrderService settles course purchases against the payment provider and
// grants course access.
type OrderService struct {
	orders        repository.OrderRepository
	courses       repository.CourseRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	sessions      *cache.SessionStore
	provider      payment.Provider
	mailer        mail.Mailer
	node          *snowflake.Node
	log           *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	sessions *cache.SessionStore,
	provider payment.Provider,
	mailer mail.Mailer,
	node *snowflake.Node,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:        orders,
		courses:       courses,
		users:         users,
		notifications: notifications,
		sessions:      sessions,
		provider:      provider,
		mailer:        mailer,
		node:          node,
		log:           log,
	}
}

// Place verifies the payment intent, persists the order, and grants the
// course. A confirmation-mail failure is reported as an upstream error even
// though the order and the grant already persisted; callers see the error,
// the purchase stands.
func (s *OrderService) Place(ctx context.Context, user domain.User, courseID int64, intentID string) (domain.Order, error) {
	if user.Owns(courseID) {
		return domain.Order{}, fmt.Errorf("%w: course %d", domain.ErrAlreadyPurchased, courseID)
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return domain.Order{}, err
	}

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		return domain.Order{}, err
	}
	if !intent.Succeeded() {
		return domain.Order{}, fmt.Errorf("%w: payment intent %s is %s", domain.ErrInvalidCredentials, intent.ID, intent.Status)
	}

	order, err := s.orders.Create(ctx, domain.Order{
		ID:       s.node.Generate().Int64(),
		CourseID: courseID,
		UserID:   user.ID,
		Payment: domain.PaymentInfo{
			IntentID: intent.ID,
			Status:   intent.Status,
			Amount:   intent.Amount,
			Currency: intent.Currency,
		},
	})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.users.AddCourse(ctx, user.ID, courseID); err != nil {
		return domain.Order{}, err
	}
	if err := s.courses.IncrementPurchased(ctx, courseID); err != nil {
		return domain.Order{}, err
	}

	// Refresh the session snapshot so the new ownership is visible to the
	// gate without waiting for re-login.
	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.sessions.Put(ctx, fresh); err != nil {
		return domain.Order{}, err
	}

	_, err = s.notifications.Create(ctx, domain.Notification{
		ID:      s.node.Generate().Int64(),
		UserID:  user.ID,
		Title:   "New order",
		Message: fmt.Sprintf("%s purchased %s", user.Name, course.Name),
	})
	if err != nil {
		return domain.Order{}, err
	}

	err = s.mailer.Send(ctx, user.Email, "Order confirmation", "order_confirmation.html", map[string]any{
		"Name":       user.Name,
		"OrderID":    order.ID,
		"CourseName": course.Name,
		"Price":      fmt.Sprintf("%d.%02d %s", intent.Amount/100, intent.Amount%100, intent.Currency),
		"Date":       order.CreatedAt.Format(time.DateOnly),
	})
	if err != nil {
		s.log.Warn("order confirmation mail failed", zap.Int64("order_id", order.ID), zap.Error(err))
		return domain.Order{}, fmt.Errorf("%w: confirmation mail: %v", domain.ErrUpstream, err)
	}

	return order, nil
}

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// CreateIntent opens a payment intent for the given amount.
func (s *OrderService) CreateIntent(ctx context.Context, amount int64, currency string) (payment.Intent, error) {
	if currency == "" {
		currency = "usd"
	}
	return s.provider.CreateIntent(ctx, amount, currency)
}

// PublishableKey exposes the provider's client-side key.
func (s *OrderService) PublishableKey() string {
	return s.provider.PublishableKey()
}
