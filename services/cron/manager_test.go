package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	report services.ReconcileReport
	err    error
	grace  time.Duration
}

func (s *stubReconciler) Reconcile(ctx context.Context, grace time.Duration) (services.ReconcileReport, error) {
	s.grace = grace
	return s.report, s.err
}

func TestRunNowRecordsCompletedJob(t *testing.T) {
	db := testutil.SuperadminDB(t)
	reconciler := &stubReconciler{report: services.ReconcileReport{Scanned: 2, Completed: 1, Compensated: 1}}
	m := NewCronManager(db, reconciler, 5*time.Minute)

	require.NoError(t, m.RunNow(context.Background(), JobReconcileAssignments))
	assert.Equal(t, 5*time.Minute, reconciler.grace)

	var entry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", JobReconcileAssignments).First(&entry).Error)
	assert.Equal(t, model.CronStatusCompleted, entry.Status)
	assert.Contains(t, entry.Message, "1 completed, 1 compensated")
	assert.NotNil(t, entry.CompletedAt)
}

func TestRunNowRecordsFailedJob(t *testing.T) {
	db := testutil.SuperadminDB(t)
	m := NewCronManager(db, &stubReconciler{err: errors.New("superadmin datastore down")}, time.Minute)

	err := m.RunNow(context.Background(), JobReconcileAssignments)
	require.Error(t, err)

	var entry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", JobReconcileAssignments).First(&entry).Error)
	assert.Equal(t, model.CronStatusFailed, entry.Status)
	assert.Equal(t, "superadmin datastore down", entry.ErrorMsg)

	assert.Error(t, m.RunNow(context.Background(), "no_such_job"))
}

func TestCleanupJobs(t *testing.T) {
	db := testutil.SuperadminDB(t)
	m := NewCronManager(db, &stubReconciler{}, time.Minute)
	ctx := context.Background()

	admin := testutil.CreateSuperAdmin(t, db, "root@college.edu", "Sup3rSecret!", model.SuperAdminRole)
	old := time.Now().Add(-60 * 24 * time.Hour)

	require.NoError(t, db.Create(&model.JWTTokenBlacklist{Token: "expired", UserID: admin.ID, ExpiresAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&model.JWTTokenBlacklist{Token: "live", UserID: admin.ID, ExpiresAt: time.Now().Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&model.CronJobLog{JobName: "old", Status: model.CronStatusCompleted, StartedAt: old, CreatedAt: old}).Error)
	require.NoError(t, db.Create(&model.AssignmentIntent{ID: "settled", Status: model.AssignmentStatusCompleted, CreatedAt: old, UpdatedAt: old}).Error)
	require.NoError(t, db.Create(&model.AssignmentIntent{ID: "open", Status: model.AssignmentStatusFailed, CreatedAt: old, UpdatedAt: old}).Error)

	msg, err := m.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 expired blacklist entries", msg)

	msg, err = m.CleanupOldData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 cron job logs and 1 settled intents", msg)

	var remaining []model.AssignmentIntent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "open", remaining[0].ID)
}
