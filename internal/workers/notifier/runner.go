package notifier

import (
	"context"
	"log/slog"
	"time"

	"semear/internal/ports"
)

// Deliverer pushes one alert to its side channel.
type Deliverer interface {
	Deliver(ctx context.Context, alert ports.Alert) error
}

// SlogDeliverer writes alerts to the structured log. The default channel
// until a real pager/webhook integration exists.
type SlogDeliverer struct{ Logger *slog.Logger }

func (d SlogDeliverer) Deliver(ctx context.Context, alert ports.Alert) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "conflict alert",
		"alert_id", alert.ID,
		"severity", alert.Severity,
		"message", alert.Message,
	)
	return nil
}

// Run starts worker goroutines that claim queued alerts and deliver them.
func Run(ctx context.Context, queue ports.AlertQueue, deliverer Deliverer, concurrency int, pollInterval time.Duration) {
	if concurrency < 1 {
		return
	}
	alertsCh := make(chan ports.Alert, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(alertsCh)
				return
			case <-ticker.C:
				for {
					alert, found, err := queue.ClaimNextAlert(ctx)
					if err != nil {
						slog.Error("alert claim failed", "error", err)
						break
					}
					if !found {
						break
					}
					alertsCh <- alert
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for alert := range alertsCh {
				if err := deliverer.Deliver(ctx, alert); err != nil {
					_ = queue.MarkAlertFailed(ctx, alert.ID, err.Error())
					slog.Error("alert delivery failed", "worker", idx, "alert_id", alert.ID, "error", err)
					continue
				}
				if err := queue.MarkAlertSent(ctx, alert.ID); err != nil {
					slog.Error("alert mark sent failed", "worker", idx, "alert_id", alert.ID, "error", err)
				}
			}
		}(i)
	}
}

// DrainOnce claims and delivers queued alerts until the queue is empty,
// using the same delivery path as the background workers.
func DrainOnce(ctx context.Context, queue ports.AlertQueue, deliverer Deliverer) (int, error) {
	delivered := 0
	for {
		alert, found, err := queue.ClaimNextAlert(ctx)
		if err != nil {
			return delivered, err
		}
		if !found {
			return delivered, nil
		}
		if err := deliverer.Deliver(ctx, alert); err != nil {
			if mErr := queue.MarkAlertFailed(ctx, alert.ID, err.Error()); mErr != nil {
				return delivered, mErr
			}
			continue
		}
		if err := queue.MarkAlertSent(ctx, alert.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
}
