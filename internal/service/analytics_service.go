package service

import (
	"context"
	"time"

	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// MonthCount is one bucket of the last-12-months series.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// AnalyticsService produces the admin dashboard series.
type AnalyticsService struct {
	users   repository.UserRepository
	courses repository.CourseRepository
	orders  repository.OrderRepository
	now     func() time.Time
}

func NewAnalyticsService(
	users repository.UserRepository,
	courses repository.CourseRepository,
	orders repository.OrderRepository,
) *AnalyticsService {
	return &AnalyticsService{users: users, courses: courses, orders: orders, now: time.Now}
}

type monthlyCounter interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// UsersByMonth counts user signups per calendar month over the last year.
func (s *AnalyticsService) UsersByMonth(ctx context.Context) ([]MonthCount, error) {
	return s.series(ctx, s.users)
}

// CoursesByMonth counts course creations per calendar month over the last year.
func (s *AnalyticsService) CoursesByMonth(ctx context.Context) ([]MonthCount, error) {
	return s.series(ctx, s.courses)
}

// OrdersByMonth counts orders per calendar month over the last year.
func (s *AnalyticsService) OrdersByMonth(ctx context.Context) ([]MonthCount, error) {
	return s.series(ctx, s.orders)
}

func (s *AnalyticsService) series(ctx context.Context, counter monthlyCounter) ([]MonthCount, error) {
	now := s.now().UTC()
	buckets := make([]MonthCount, 0, 12)
	for i := 11; i >= 0; i-- {
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)
		count, err := counter.CountCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, MonthCount{Month: from.Format("2006-01"), Count: count})
	}
	return buckets, nil
}
