package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// retainRead is how long read notifications are kept before the sweep
// removes them.
const retainRead = 30 * 24 * time.Hour

// NotificationService owns the admin notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
	log           *zap.Logger
}

func NewNotificationService(notifications repository.NotificationRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, log: log}
}

// List returns every notification, newest first.
func (s *NotificationService) List(ctx context.Context) ([]domain.Notification, error) {
	return s.notifications.List(ctx)
}

// MarkRead flips one notification to read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) (domain.Notification, error) {
	return s.notifications.MarkRead(ctx, id)
}

// Sweep deletes read notifications older than the retention window. The cron
// scheduler calls it daily.
func (s *NotificationService) Sweep(ctx context.Context) error {
	swept, err := s.notifications.DeleteReadBefore(ctx, time.Now().Add(-retainRead))
	if err != nil {
		return err
	}
	if swept > 0 {
		s.log.Info("swept read notifications", zap.Int64("count", swept))
	}
	return nil
}
