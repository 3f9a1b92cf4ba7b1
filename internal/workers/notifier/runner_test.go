package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semear/internal/ports"
)

type memQueue struct {
	queued []ports.Alert
	sent   []string
	failed map[string]string
}

func newMemQueue(alerts ...ports.Alert) *memQueue {
	return &memQueue{queued: alerts, failed: map[string]string{}}
}

func (q *memQueue) EnqueueAlert(ctx context.Context, severity, message string) (string, error) {
	id := fmt.Sprintf("a%d", len(q.queued)+1)
	q.queued = append(q.queued, ports.Alert{ID: id, Severity: severity, Message: message})
	return id, nil
}

func (q *memQueue) ClaimNextAlert(ctx context.Context) (ports.Alert, bool, error) {
	if len(q.queued) == 0 {
		return ports.Alert{}, false, nil
	}
	alert := q.queued[0]
	q.queued = q.queued[1:]
	return alert, true, nil
}

func (q *memQueue) MarkAlertSent(ctx context.Context, alertID string) error {
	q.sent = append(q.sent, alertID)
	return nil
}

func (q *memQueue) MarkAlertFailed(ctx context.Context, alertID string, reason string) error {
	q.failed[alertID] = reason
	return nil
}

type recordingDeliverer struct {
	delivered []ports.Alert
	failOn    string
}

func (d *recordingDeliverer) Deliver(ctx context.Context, alert ports.Alert) error {
	if alert.ID == d.failOn {
		return errors.New("unreachable channel")
	}
	d.delivered = append(d.delivered, alert)
	return nil
}

func TestDrainOnce_DeliversAllQueuedAlerts(t *testing.T) {
	queue := newMemQueue(
		ports.Alert{ID: "a1", Severity: "warning", Message: "w"},
		ports.Alert{ID: "a2", Severity: "critical", Message: "c"},
	)
	deliverer := &recordingDeliverer{}

	n, err := DrainOnce(context.Background(), queue, deliverer)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Len(t, deliverer.delivered, 2)
	assert.Equal(t, []string{"a1", "a2"}, queue.sent)
	assert.Empty(t, queue.failed)
}

func TestDrainOnce_MarksFailedAndContinues(t *testing.T) {
	queue := newMemQueue(
		ports.Alert{ID: "a1"},
		ports.Alert{ID: "a2"},
		ports.Alert{ID: "a3"},
	)
	deliverer := &recordingDeliverer{failOn: "a2"}

	n, err := DrainOnce(context.Background(), queue, deliverer)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a1", "a3"}, queue.sent)
	assert.Contains(t, queue.failed, "a2")
	assert.Equal(t, "unreachable channel", queue.failed["a2"])
}

func TestDrainOnce_EmptyQueue(t *testing.T) {
	n, err := DrainOnce(context.Background(), newMemQueue(), &recordingDeliverer{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlogDeliverer_NilLogger(t *testing.T) {
	d := SlogDeliverer{}
	require.NoError(t, d.Deliver(context.Background(), ports.Alert{ID: "a1", Severity: "warning"}))
}
