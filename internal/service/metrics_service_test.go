package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acehealth-ng/mentorlog-api/internal/models"
)

func TestTransitionCounterTracksWorkflow(t *testing.T) {
	users, logs, facilities, notifier, files := workflowFixture()
	metrics := NewMetricsService()
	svc := newLogService(users, logs, facilities, notifier, files).WithMetrics(metrics)

	_, err := svc.Submit(context.Background(), "mentor-1", "log-draft", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("submitted")))

	_, err = svc.Approve(context.Background(), "sup-1", "log-submitted", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("approved")))

	// The freshly submitted log goes back to draft on rejection.
	_, err = svc.Reject(context.Background(), "sup-1", "log-draft", models.RejectLogRequest{Reason: "missing findings"}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("draft")))
}

func TestTransitionCounterSilentOnFailure(t *testing.T) {
	users, logs, facilities, notifier, files := workflowFixture()
	metrics := NewMetricsService()
	svc := newLogService(users, logs, facilities, notifier, files).WithMetrics(metrics)

	_, err := svc.Submit(context.Background(), "mentor-1", "log-submitted", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("submitted")))
}

func TestNotificationCounterTracksCreation(t *testing.T) {
	repo := &mockNotificationRepo{}
	users := &mockSpecialistDirectory{specialists: []models.User{
		{ID: "spec-1", Active: true, Specializations: models.StringList{"PMTCT", "TB/HIV"}},
		{ID: "spec-2", Active: true, Specializations: models.StringList{"PMTCT"}},
	}}
	metrics := NewMetricsService()
	svc := NewNotificationService(repo, users, &mockCountCache{}, time.Minute, zap.NewNop()).WithMetrics(metrics)

	err := svc.FanOutSpecialistLog(context.Background(), fanOutLog(), "mentor-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(string(models.NotificationSpecialistLog))))

	// A second fan-out of the same log is deduplicated and must not count.
	err = svc.FanOutSpecialistLog(context.Background(), fanOutLog(), "mentor-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(string(models.NotificationSpecialistLog))))
}
