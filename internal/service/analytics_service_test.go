package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jackson0tr/lerko-backend/internal/domain"
)

func TestAnalyticsSeriesBuckets(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAnalyticsService(users, newFakeCourseRepo(), &fakeOrderRepo{})
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	// Two signups this month, one three months back, one outside the window.
	seed := func(id int64, createdAt time.Time) {
		_, err := users.Create(ctx, domain.User{ID: id})
		require.NoError(t, err)
		users.mu.Lock()
		u := users.users[id]
		u.CreatedAt = createdAt
		users.users[id] = u
		users.mu.Unlock()
	}
	seed(1, now)
	seed(2, now.Add(-24*time.Hour))
	seed(3, now.AddDate(0, -3, 0))
	seed(4, now.AddDate(-2, 0, 0))

	buckets, err := svc.UsersByMonth(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 12)

	require.Equal(t, "2025-09", buckets[0].Month)
	require.Equal(t, "2026-08", buckets[11].Month)
	require.Equal(t, int64(2), buckets[11].Count)
	require.Equal(t, int64(1), buckets[8].Count)

	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	require.Equal(t, int64(3), total)
}
