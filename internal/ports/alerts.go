package ports

import "context"

// Alert is a queued side-channel notification raised by the audit sink.
type Alert struct {
	ID       string
	Severity string
	Message  string
}

// AlertQueue supports enqueueing and claiming alerts for delivery.
type AlertQueue interface {
	EnqueueAlert(ctx context.Context, severity, message string) (alertID string, err error)
	ClaimNextAlert(ctx context.Context) (alert Alert, found bool, err error)
	MarkAlertSent(ctx context.Context, alertID string) error
	MarkAlertFailed(ctx context.Context, alertID string, reason string) error
}
