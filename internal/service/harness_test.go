package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/media"
	"github.com/jackson0tr/lerko-backend/internal/payment"
	"github.com/jackson0tr/lerko-backend/internal/token"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: %s", domain.ErrNotFound, email)
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %d", domain.ErrNotFound, user.ID)
	}
	user.CourseIDs = stored.CourseIDs
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) AddCourse(_ context.Context, userID, courseID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}
	for _, id := range user.CourseIDs {
		if id == courseID {
			return nil
		}
	}
	user.CourseIDs = append(user.CourseIDs, courseID)
	r.users[userID] = user
	return nil
}

func (r *fakeUserRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if !user.CreatedAt.Before(from) && user.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// fakeCourseRepo is an in-memory CourseRepository.
type fakeCourseRepo struct {
	mu        sync.Mutex
	courses   map[int64]domain.Course
	questions map[int64]domain.Question
	reviews   map[int64]domain.Review
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses:   make(map[int64]domain.Course),
		questions: make(map[int64]domain.Question),
		reviews:   make(map[int64]domain.Review),
	}
}

func (r *fakeCourseRepo) Create(_ context.Context, course domain.Course) (domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course.CreatedAt = time.Now()
	r.courses[course.ID] = course
	return course, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, course domain.Course) (domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[course.ID]; !ok {
		return domain.Course{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, course.ID)
	}
	r.courses[course.ID] = course
	return course, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id int64) (domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok {
		return domain.Course{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
	}
	return course, nil
}

func (r *fakeCourseRepo) List(_ context.Context) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Course, 0, len(r.courses))
	for _, course := range r.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCourseRepo) Search(_ context.Context, key string) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, course := range r.courses {
		if strings.Contains(strings.ToLower(course.Name), strings.ToLower(key)) {
			out = append(out, course)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
	}
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) GetSection(_ context.Context, courseID, sectionID int64) (domain.CourseSection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[courseID]
	if !ok {
		return domain.CourseSection{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, courseID)
	}
	for _, section := range course.Sections {
		if section.ID == sectionID {
			return section, nil
		}
	}
	return domain.CourseSection{}, fmt.Errorf("%w: section %d", domain.ErrNotFound, sectionID)
}

func (r *fakeCourseRepo) AddQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.CreatedAt = time.Now()
	r.questions[q.ID] = q
	return q, nil
}

func (r *fakeCourseRepo) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
	}
	return q, nil
}

func (r *fakeCourseRepo) AddAnswer(_ context.Context, a domain.Answer) (domain.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.CreatedAt = time.Now()
	q, ok := r.questions[a.QuestionID]
	if !ok {
		return domain.Answer{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, a.QuestionID)
	}
	q.Replies = append(q.Replies, a)
	r.questions[a.QuestionID] = q
	return a, nil
}

func (r *fakeCourseRepo) AddReview(_ context.Context, review domain.Review) (domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review.CreatedAt = time.Now()
	r.reviews[review.ID] = review

	course, ok := r.courses[review.CourseID]
	if !ok {
		return domain.Review{}, fmt.Errorf("%w: course %d", domain.ErrNotFound, review.CourseID)
	}
	course.Reviews = append(course.Reviews, review)
	var sum float64
	for _, rv := range course.Reviews {
		sum += float64(rv.Rating)
	}
	course.Rating = sum / float64(len(course.Reviews))
	r.courses[course.ID] = course
	return review, nil
}

func (r *fakeCourseRepo) GetReview(_ context.Context, id int64) (domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.reviews[id]
	if !ok {
		return domain.Review{}, fmt.Errorf("%w: review %d", domain.ErrNotFound, id)
	}
	return review, nil
}

func (r *fakeCourseRepo) AddReviewReply(_ context.Context, reply domain.Reply) (domain.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reply.CreatedAt = time.Now()
	review, ok := r.reviews[reply.ReviewID]
	if !ok {
		return domain.Reply{}, fmt.Errorf("%w: review %d", domain.ErrNotFound, reply.ReviewID)
	}
	review.Replies = append(review.Replies, reply)
	r.reviews[reply.ReviewID] = review
	return reply, nil
}

func (r *fakeCourseRepo) IncrementPurchased(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok {
		return fmt.Errorf("%w: course %d", domain.ErrNotFound, id)
	}
	course.Purchased++
	r.courses[id] = course
	return nil
}

func (r *fakeCourseRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, course := range r.courses {
		if !course.CreatedAt.Before(from) && course.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// fakeOrderRepo is an in-memory OrderRepository.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (r *fakeOrderRepo) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.CreatedAt = time.Now()
	r.orders = append(r.orders, order)
	return order, nil
}

func (r *fakeOrderRepo) List(_ context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Order(nil), r.orders...), nil
}

func (r *fakeOrderRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, order := range r.orders {
		if !order.CreatedAt.Before(from) && order.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

// fakeNotificationRepo is an in-memory NotificationRepository.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.Status = domain.NotificationUnread
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return n, nil
}

func (r *fakeNotificationRepo) List(_ context.Context) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.notifications...), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id int64) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications[i].Status = domain.NotificationRead
			return r.notifications[i], nil
		}
	}
	return domain.Notification{}, fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
}

func (r *fakeNotificationRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.Notification
	var swept int64
	for _, n := range r.notifications {
		if n.Status == domain.NotificationRead && n.CreatedAt.Before(cutoff) {
			swept++
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return swept, nil
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	To       string
	Subject  string
	Template string
	Data     any
}

func (m *fakeMailer) Send(_ context.Context, to, subject, templateName string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Template: templateName, Data: data})
	return nil
}

func (m *fakeMailer) sentTo(to string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.To == to {
			out = append(out, s)
		}
	}
	return out
}

// fakeUploader returns deterministic asset references.
type fakeUploader struct {
	mu      sync.Mutex
	removed []string
}

func (u *fakeUploader) Upload(_ context.Context, folder, name string, _ io.Reader) (domain.Asset, error) {
	return domain.Asset{ID: folder + "/" + name, URL: "https://cdn.test/" + folder + "/" + name}, nil
}

func (u *fakeUploader) Remove(_ context.Context, assetID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removed = append(u.removed, assetID)
	return nil
}

// fakePaymentProvider answers intent lookups from a fixed map.
type fakePaymentProvider struct {
	intents map[string]payment.Intent
}

func (p *fakePaymentProvider) CreateIntent(_ context.Context, amount int64, currency string) (payment.Intent, error) {
	return payment.Intent{ID: "pi_new", Status: "requires_payment_method", Amount: amount, Currency: currency, ClientSecret: "secret"}, nil
}

func (p *fakePaymentProvider) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	intent, ok := p.intents[id]
	if !ok {
		return payment.Intent{}, fmt.Errorf("%w: intent %s", domain.ErrUpstream, id)
	}
	return intent, nil
}

func (p *fakePaymentProvider) PublishableKey() string { return "pk_test" }

// fakeVideoGateway mints a fixed ticket.
type fakeVideoGateway struct{}

func (fakeVideoGateway) PlaybackOTP(_ context.Context, videoID string) (media.PlaybackTicket, error) {
	return media.PlaybackTicket{OTP: "otp-" + videoID, PlaybackInfo: "info"}, nil
}

// authHarness bundles an AuthService with its collaborators.
type authHarness struct {
	service  *AuthService
	users    *fakeUserRepo
	sessions *cache.SessionStore
	redis    *miniredis.Miniredis
	mailer   *fakeMailer
	uploader *fakeUploader
	issuer   *token.Issuer
	cfg      *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret-access-secret-1234",
		RefreshTokenSecret: "refresh-secret-refresh-secret-12",
		ActivationSecret:   "activation-secret-activation-123",
		ResetSecret:        "reset-secret-reset-secret-123456",
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    3 * 24 * time.Hour,
		SessionTTL:         7 * 24 * time.Hour,
		ActivationTokenTTL: 5 * time.Minute,
		ResetTokenTTL:      24 * time.Hour,
		ContentCacheTTL:    7 * 24 * time.Hour,
		FrontendURL:        "http://localhost:3000",
	}
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	users := newFakeUserRepo()
	sessions := cache.NewSessionStore(client, cfg.SessionTTL)
	issuer := token.NewIssuer(*cfg)
	mailer := &fakeMailer{}
	uploader := &fakeUploader{}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &authHarness{
		service:  NewAuthService(users, sessions, issuer, mailer, uploader, node, cfg, zap.NewNop()),
		users:    users,
		sessions: sessions,
		redis:    mr,
		mailer:   mailer,
		uploader: uploader,
		issuer:   issuer,
		cfg:      cfg,
	}
}

// seedUser registers and activates a user through the real flow.
func (h *authHarness) seedUser(t *testing.T, name, email, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	activation, err := h.service.Register(ctx, name, email, password)
	require.NoError(t, err)

	mails := h.mailer.sentTo(email)
	require.NotEmpty(t, mails)
	data, ok := mails[len(mails)-1].Data.(map[string]any)
	require.True(t, ok)
	code, ok := data["Code"].(string)
	require.True(t, ok)

	user, err := h.service.Activate(ctx, activation, code)
	require.NoError(t, err)
	return user
}
