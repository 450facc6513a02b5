package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	JobReconcileAssignments = "reconcile_assignments"
	JobCleanupExpiredTokens = "cleanup_expired_tokens"
	JobCleanupOldData       = "cleanup_old_data"
)

// Reconciler repairs or reverses interrupted head assignments
type Reconciler interface {
	Reconcile(ctx context.Context, grace time.Duration) (services.ReconcileReport, error)
}

type job struct {
	name    string
	spec    string // with seconds field
	timeout time.Duration
	run     func(ctx context.Context) (string, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	reconciler Reconciler
	blacklist  *auth.BlacklistService
	grace      time.Duration
	retention  time.Duration
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, reconciler Reconciler, grace time.Duration) *CronManager {
	logger := cron.PrintfLogger(logrus.StandardLogger())

	// Create cron with seconds precision; a slow pass is skipped rather than overlapped
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &CronManager{
		cron:       c,
		db:         db,
		reconciler: reconciler,
		blacklist:  auth.NewBlacklistService(db),
		grace:      grace,
		retention:  30 * 24 * time.Hour,
	}
}

func (m *CronManager) jobs() []job {
	return []job{
		// Every minute: finish or reverse stale head assignments
		{name: JobReconcileAssignments, spec: "0 * * * * *", timeout: 50 * time.Second, run: m.ReconcileAssignments},
		// Every hour: drop expired blacklist entries
		{name: JobCleanupExpiredTokens, spec: "0 0 * * * *", timeout: 5 * time.Minute, run: m.CleanupExpiredTokens},
		// Daily at 2 AM: drop old job logs and settled intents
		{name: JobCleanupOldData, spec: "0 0 2 * * *", timeout: 10 * time.Minute, run: m.CleanupOldData},
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	logrus.Info("starting cron jobs")

	for _, j := range m.jobs() {
		j := j
		if _, err := m.cron.AddFunc(j.spec, func() {
			_ = m.execute(context.Background(), j)
		}); err != nil {
			return fmt.Errorf("failed to register job %s: %w", j.name, err)
		}
	}

	m.cron.Start()

	logrus.Info("cron jobs started")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	logrus.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	logrus.Info("cron jobs stopped")
}

// RunNow executes one job immediately, with the same logging as a scheduled run
func (m *CronManager) RunNow(ctx context.Context, name string) error {
	for _, j := range m.jobs() {
		if j.name == name {
			return m.execute(ctx, j)
		}
	}
	return fmt.Errorf("unknown cron job %q", name)
}

func (m *CronManager) execute(parent context.Context, j job) error {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	entry := m.logJobStart(ctx, j.name)

	message, err := j.run(ctx)
	if err != nil {
		m.logJobError(ctx, entry, err)
		return err
	}

	m.logJobComplete(ctx, entry, message)
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(ctx context.Context, jobName string) *model.CronJobLog {
	logrus.WithField("job", jobName).Debug("starting cron job")

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: time.Now(),
	}
	if err := m.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithError(err).WithField("job", jobName).Warn("failed to write cron job log")
	}
	return entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(ctx context.Context, entry *model.CronJobLog, message string) {
	logrus.WithField("job", entry.JobName).Info(message)
	m.finishJob(ctx, entry, map[string]interface{}{
		"status":  model.CronStatusCompleted,
		"message": message,
	})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(ctx context.Context, entry *model.CronJobLog, err error) {
	logrus.WithError(err).WithField("job", entry.JobName).Error("cron job failed")
	m.finishJob(ctx, entry, map[string]interface{}{
		"status":    model.CronStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishJob(ctx context.Context, entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}

	now := time.Now()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(entry.StartedAt).Milliseconds()

	if err := m.db.WithContext(context.WithoutCancel(ctx)).Model(entry).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("job", entry.JobName).Warn("failed to update cron job log")
	}
}
