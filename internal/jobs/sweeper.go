// Package jobs schedules background maintenance.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/service"
)

// RunNotificationSweeper schedules the daily midnight sweep of old read
// notifications and ties the scheduler to the application lifecycle.
func RunNotificationSweeper(lc fx.Lifecycle, notifications *service.NotificationService, logger *zap.Logger) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := notifications.Sweep(ctx); err != nil {
			logger.Error("notification sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stop := scheduler.Stop()
			select {
			case <-stop.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return nil
}
