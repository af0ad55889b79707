package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/payment"
)

type orderHarness struct {
	service       *OrderService
	orders        *fakeOrderRepo
	courses       *fakeCourseRepo
	users         *fakeUserRepo
	notifications *fakeNotificationRepo
	sessions      *cache.SessionStore
	provider      *fakePaymentProvider
	mailer        *fakeMailer
}

func newOrderHarness(t *testing.T) *orderHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	orders := &fakeOrderRepo{}
	courses := newFakeCourseRepo()
	users := newFakeUserRepo()
	notifications := &fakeNotificationRepo{}
	sessions := cache.NewSessionStore(client, testConfig().SessionTTL)
	provider := &fakePaymentProvider{intents: map[string]payment.Intent{
		"pi_ok":      {ID: "pi_ok", Status: "succeeded", Amount: 4900, Currency: "usd"},
		"pi_pending": {ID: "pi_pending", Status: "requires_payment_method", Amount: 4900, Currency: "usd"},
	}}
	mailer := &fakeMailer{}

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	return &orderHarness{
		service:       NewOrderService(orders, courses, users, notifications, sessions, provider, mailer, node, zap.NewNop()),
		orders:        orders,
		courses:       courses,
		users:         users,
		notifications: notifications,
		sessions:      sessions,
		provider:      provider,
		mailer:        mailer,
	}
}

func (h *orderHarness) seed(t *testing.T) (domain.User, domain.Course) {
	t.Helper()
	ctx := context.Background()

	course, err := h.courses.Create(ctx, domain.Course{ID: 500, Name: "Practical Go", Price: 4900})
	require.NoError(t, err)
	user, err := h.users.Create(ctx, domain.User{ID: 900, Name: "Buyer", Email: "buyer@example.com", Role: domain.RoleUser})
	require.NoError(t, err)
	return user, course
}

func TestPlaceOrderGrantsCourse(t *testing.T) {
	h := newOrderHarness(t)
	ctx := context.Background()
	user, course := h.seed(t)

	order, err := h.service.Place(ctx, user, course.ID, "pi_ok")
	require.NoError(t, err)
	require.Equal(t, "succeeded", order.Payment.Status)

	// Ownership granted and the session snapshot refreshed with it.
	granted, err := h.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, granted.Owns(course.ID))

	snapshot, ok, err := h.sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, snapshot.Owns(course.ID))

	updated, err := h.courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Purchased)

	require.Len(t, h.mailer.sentTo("buyer@example.com"), 1)
	notifications, err := h.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
}

func TestPlaceOrderRejectsDuplicate(t *testing.T) {
	h := newOrderHarness(t)
	ctx := context.Background()
	user, course := h.seed(t)

	_, err := h.service.Place(ctx, user, course.ID, "pi_ok")
	require.NoError(t, err)

	owner, err := h.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	_, err = h.service.Place(ctx, owner, course.ID, "pi_ok")
	require.ErrorIs(t, err, domain.ErrAlreadyPurchased)
}

func TestPlaceOrderRejectsUnsettledIntent(t *testing.T) {
	h := newOrderHarness(t)
	user, course := h.seed(t)

	_, err := h.service.Place(context.Background(), user, course.ID, "pi_pending")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.Empty(t, h.orders.orders)
}

func TestPlaceOrderUnknownIntent(t *testing.T) {
	h := newOrderHarness(t)
	user, course := h.seed(t)

	_, err := h.service.Place(context.Background(), user, course.ID, "pi_missing")
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestPlaceOrderMailFailureSurfacesAfterPersist(t *testing.T) {
	h := newOrderHarness(t)
	ctx := context.Background()
	user, course := h.seed(t)
	h.mailer.fail = true

	_, err := h.service.Place(ctx, user, course.ID, "pi_ok")
	require.ErrorIs(t, err, domain.ErrUpstream)

	// The purchase stands even though the caller saw an error.
	require.Len(t, h.orders.orders, 1)
	granted, getErr := h.users.GetByID(ctx, user.ID)
	require.NoError(t, getErr)
	require.True(t, granted.Owns(course.ID))
}

func TestCreateIntentDefaultsCurrency(t *testing.T) {
	h := newOrderHarness(t)

	intent, err := h.service.CreateIntent(context.Background(), 4900, "")
	require.NoError(t, err)
	require.Equal(t, "usd", intent.Currency)
	require.Equal(t, "pk_test", h.service.PublishableKey())
}
