package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
)

// ReconcileAssignments completes or reverses assignment intents that stayed
// pending or failed past the grace period
func (m *CronManager) ReconcileAssignments(ctx context.Context) (string, error) {
	report, err := m.reconciler.Reconcile(ctx, m.grace)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Scanned %d intents: %d completed, %d compensated, %d errored",
		report.Scanned, report.Completed, report.Compensated, report.Errored), nil
}

// CleanupExpiredTokens removes blacklist entries whose tokens have expired anyway
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (string, error) {
	removed, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return fmt.Sprintf("Removed %d expired blacklist entries", removed), nil
}

// CleanupOldData deletes job logs and settled assignment intents past the retention window
func (m *CronManager) CleanupOldData(ctx context.Context) (string, error) {
	cutoff := time.Now().Add(-m.retention)
	db := m.db.WithContext(ctx)

	logs := db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if logs.Error != nil {
		return "", fmt.Errorf("failed to cleanup cron job logs: %w", logs.Error)
	}

	intents := db.
		Where("status IN ? AND updated_at < ?", []model.AssignmentStatus{
			model.AssignmentStatusCompleted,
			model.AssignmentStatusCompensated,
		}, cutoff).
		Delete(&model.AssignmentIntent{})
	if intents.Error != nil {
		return "", fmt.Errorf("failed to cleanup assignment intents: %w", intents.Error)
	}

	return fmt.Sprintf("Removed %d cron job logs and %d settled intents", logs.RowsAffected, intents.RowsAffected), nil
}
