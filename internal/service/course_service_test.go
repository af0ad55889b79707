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
)

type courseHarness struct {
	service       *CourseService
	courses       *fakeCourseRepo
	users         *fakeUserRepo
	notifications *fakeNotificationRepo
	content       *cache.ContentCache
	redis         *miniredis.Miniredis
	mailer        *fakeMailer
}

func newCourseHarness(t *testing.T) *courseHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	courses := newFakeCourseRepo()
	users := newFakeUserRepo()
	notifications := &fakeNotificationRepo{}
	content := cache.NewContentCache(client, testConfig().ContentCacheTTL)
	mailer := &fakeMailer{}

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	return &courseHarness{
		service:       NewCourseService(courses, users, notifications, content, mailer, fakeVideoGateway{}, node, zap.NewNop()),
		courses:       courses,
		users:         users,
		notifications: notifications,
		content:       content,
		redis:         mr,
		mailer:        mailer,
	}
}

func (h *courseHarness) seedCourse(t *testing.T) domain.Course {
	t.Helper()
	course, err := h.service.Create(context.Background(), domain.Course{
		Name:        "Practical Go",
		Description: "services and plumbing",
		Price:       4900,
		Sections: []domain.CourseSection{
			{
				Title:      "Intro",
				VideoURL:   "vid-1",
				Suggestion: "watch twice",
				Links:      []domain.Link{{Title: "slides", URL: "https://slides"}},
			},
		},
	})
	require.NoError(t, err)
	return course
}

func (h *courseHarness) seedOwner(t *testing.T, courseID int64) domain.User {
	t.Helper()
	user, err := h.users.Create(context.Background(), domain.User{
		ID: 1001, Name: "Owner", Email: "owner@example.com", Role: domain.RoleUser,
	})
	require.NoError(t, err)
	require.NoError(t, h.users.AddCourse(context.Background(), user.ID, courseID))
	user.CourseIDs = []int64{courseID}
	return user
}

func TestGetPublicRedactsAndCaches(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)

	got, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	require.Empty(t, got.Sections[0].VideoURL)
	require.Empty(t, got.Sections[0].Suggestion)
	require.Empty(t, got.Sections[0].Links)

	// The second read is a verbatim cache hit: a direct repo edit is not
	// visible until the key is invalidated.
	course.Name = "Changed Behind The Cache"
	_, err = h.courses.Update(ctx, course)
	require.NoError(t, err)

	cached, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "Practical Go", cached.Name)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)

	_, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)

	course.Name = "Practical Go, 2nd Edition"
	_, err = h.service.Update(ctx, course)
	require.NoError(t, err)

	fresh, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "Practical Go, 2nd Edition", fresh.Name)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)

	_, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)

	require.NoError(t, h.service.Delete(ctx, course.ID))

	_, err = h.service.GetPublic(ctx, course.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentRequiresPurchase(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)

	stranger := domain.User{ID: 55, Role: domain.RoleUser}
	_, err := h.service.Content(ctx, stranger, course.ID)
	require.ErrorIs(t, err, domain.ErrNotPurchased)

	owner := h.seedOwner(t, course.ID)
	sections, err := h.service.Content(ctx, owner, course.ID)
	require.NoError(t, err)
	require.Equal(t, "vid-1", sections[0].VideoURL)

	admin := domain.User{ID: 1, Role: domain.RoleAdmin}
	_, err = h.service.Content(ctx, admin, course.ID)
	require.NoError(t, err)
}

func TestAddQuestionNotifiesAdmins(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	owner := h.seedOwner(t, course.ID)

	question, err := h.service.AddQuestion(ctx, owner, course.ID, course.Sections[0].ID, "why channels?")
	require.NoError(t, err)
	require.Equal(t, owner.ID, question.UserID)

	notifications, err := h.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "New question", notifications[0].Title)
}

func TestAddAnswerMailsQuestionOwner(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	owner := h.seedOwner(t, course.ID)

	question, err := h.service.AddQuestion(ctx, owner, course.ID, course.Sections[0].ID, "why channels?")
	require.NoError(t, err)

	admin, err := h.users.Create(ctx, domain.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = h.service.AddAnswer(ctx, admin, course.ID, course.Sections[0].ID, question.ID, "for backpressure")
	require.NoError(t, err)

	mails := h.mailer.sentTo("owner@example.com")
	require.Len(t, mails, 1)
	require.Equal(t, "question_reply.html", mails[0].Template)
}

func TestAddAnswerSelfReplyNotifiesInstead(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	owner := h.seedOwner(t, course.ID)

	question, err := h.service.AddQuestion(ctx, owner, course.ID, course.Sections[0].ID, "nevermind, solved it")
	require.NoError(t, err)

	_, err = h.service.AddAnswer(ctx, owner, course.ID, course.Sections[0].ID, question.ID, "the answer was nil maps")
	require.NoError(t, err)

	require.Empty(t, h.mailer.sentTo("owner@example.com"))
	notifications, err := h.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
}

func TestAddReviewAggregatesRatingAndInvalidates(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	course := h.seedCourse(t)
	owner := h.seedOwner(t, course.ID)

	_, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)

	_, err = h.service.AddReview(ctx, owner, course.ID, 4, "solid")
	require.NoError(t, err)

	second := domain.User{ID: 1002, Name: "Second", Role: domain.RoleUser, CourseIDs: []int64{course.ID}}
	_, err = h.users.Create(ctx, second)
	require.NoError(t, err)
	_, err = h.service.AddReview(ctx, second, course.ID, 5, "great")
	require.NoError(t, err)

	fresh, err := h.service.GetPublic(ctx, course.ID)
	require.NoError(t, err)
	require.InDelta(t, 4.5, fresh.Rating, 0.001)
	require.Len(t, fresh.Reviews, 2)
}

func TestAddReviewRequiresPurchase(t *testing.T) {
	h := newCourseHarness(t)
	course := h.seedCourse(t)

	stranger := domain.User{ID: 55, Role: domain.RoleUser}
	_, err := h.service.AddReview(context.Background(), stranger, course.ID, 5, "drive-by praise")
	require.ErrorIs(t, err, domain.ErrNotPurchased)
}

func TestSearchRedacts(t *testing.T) {
	h := newCourseHarness(t)
	ctx := context.Background()
	h.seedCourse(t)

	found, err := h.service.Search(ctx, "practical")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Empty(t, found[0].Sections[0].VideoURL)

	none, err := h.service.Search(ctx, "cobol")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestVideoOTP(t *testing.T) {
	h := newCourseHarness(t)
	ticket, err := h.service.VideoOTP(context.Background(), "vid-9")
	require.NoError(t, err)
	require.Equal(t, "otp-vid-9", ticket.OTP)
}
