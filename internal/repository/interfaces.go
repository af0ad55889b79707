package repository

import (
	"context"
	"time"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

// UserRepository exposes persistence for principals.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	Delete(ctx context.Context, id int64) error
	// AddCourse grants course ownership as a single membership insert.
	AddCourse(ctx context.Context, userID, courseID int64) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// CourseRepository exposes persistence for courses and their sub-collections.
// Appends to questions, answers, reviews, and replies are dedicated row
// inserts so two concurrent writers can never clobber each other's additions.
type CourseRepository interface {
	Create(ctx context.Context, course domain.Course) (domain.Course, error)
	Update(ctx context.Context, course domain.Course) (domain.Course, error)
	GetByID(ctx context.Context, id int64) (domain.Course, error)
	List(ctx context.Context) ([]domain.Course, error)
	Search(ctx context.Context, key string) ([]domain.Course, error)
	Delete(ctx context.Context, id int64) error

	GetSection(ctx context.Context, courseID, sectionID int64) (domain.CourseSection, error)
	AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	AddAnswer(ctx context.Context, a domain.Answer) (domain.Answer, error)
	// AddReview inserts the review and recomputes the course rating in the
	// same statement batch.
	AddReview(ctx context.Context, r domain.Review) (domain.Review, error)
	GetReview(ctx context.Context, id int64) (domain.Review, error)
	AddReviewReply(ctx context.Context, r domain.Reply) (domain.Reply, error)

	IncrementPurchased(ctx context.Context, id int64) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// OrderRepository persists purchases.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// NotificationRepository persists admin notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	List(ctx context.Context) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id int64) (domain.Notification, error)
	// DeleteReadBefore removes read notifications created before cutoff and
	// reports how many were swept.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LayoutRepository persists per-type singleton layout documents.
type LayoutRepository interface {
	Create(ctx context.Context, layout domain.Layout) (domain.Layout, error)
	Update(ctx context.Context, layout domain.Layout) (domain.Layout, error)
	GetByType(ctx context.Context, t domain.LayoutType) (domain.Layout, error)
}
