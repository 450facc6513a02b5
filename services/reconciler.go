package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxReconcileAttempts is how often the reconciler retries one intent before leaving it to an operator
const MaxReconcileAttempts = 5

// ReconcileReport summarizes one reconciler pass
type ReconcileReport struct {
	Scanned     int `json:"scanned"`
	Completed   int `json:"completed"`
	Compensated int `json:"compensated"`
	Errored     int `json:"errored"`
}

// Reconcile finishes or reverses assignment intents that were left pending or
// failed for longer than grace
func (s *AssignmentService) Reconcile(ctx context.Context, grace time.Duration) (ReconcileReport, error) {
	var report ReconcileReport

	var intents []model.AssignmentIntent
	err := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ? AND attempts < ?",
			[]model.AssignmentStatus{model.AssignmentStatusPending, model.AssignmentStatusFailed},
			s.now().Add(-grace),
			MaxReconcileAttempts,
		).
		Order("created_at").
		Find(&intents).Error
	if err != nil {
		return report, fmt.Errorf("failed to load stale assignment intents: %w", err)
	}

	for i := range intents {
		intent := &intents[i]
		report.Scanned++

		log := logrus.WithFields(logrus.Fields{
			"intent_id":     intent.ID,
			"head_id":       intent.HeadID,
			"university_id": intent.UniversityID,
		})

		status, err := s.reconcileIntent(ctx, intent)
		if err != nil {
			report.Errored++
			log.WithError(err).Warn("reconcile attempt failed")
			s.updateIntent(ctx, intent.ID, map[string]interface{}{
				"status":     model.AssignmentStatusFailed,
				"attempts":   intent.Attempts + 1,
				"last_error": err.Error(),
			})
			continue
		}

		switch status {
		case model.AssignmentStatusCompleted:
			report.Completed++
		case model.AssignmentStatusCompensated:
			report.Compensated++
		}
		s.updateIntent(ctx, intent.ID, map[string]interface{}{
			"status":   status,
			"attempts": intent.Attempts + 1,
		})
		log.WithField("status", status).Info("reconciled assignment intent")
	}

	return report, nil
}

func (s *AssignmentService) reconcileIntent(ctx context.Context, intent *model.AssignmentIntent) (model.AssignmentStatus, error) {
	db := s.db.WithContext(ctx)

	head, err := findOptional[model.InstitutionalHead](db, intent.HeadID)
	if err != nil {
		return "", err
	}
	university, err := findOptional[model.University](db, intent.UniversityID)
	if err != nil {
		return "", err
	}

	var adminUser *model.AdminUser
	if intent.AdminUserID != nil {
		adminUser, err = s.adminUsers.GetAdminUserByID(ctx, *intent.AdminUserID)
		if err != nil && !errors.Is(err, database.ErrAdminUserNotFound) {
			return "", err
		}
	}

	linked := head != nil && university != nil && adminUser != nil &&
		university.InstitutionalHeadID != nil && *university.InstitutionalHeadID == head.ID &&
		head.AdminUserID != nil && *head.AdminUserID == adminUser.ID
	if linked {
		return model.AssignmentStatusCompleted, nil
	}

	// reverse every link this intent may have made
	if university != nil {
		if err := clearUniversityHead(db, university.ID, intent.HeadID); err != nil {
			return "", err
		}
	}

	// a head that went on to lead another university keeps its admin user
	var stillHeading int64
	if head != nil {
		if stillHeading, err = countUniversitiesHeadedBy(db, head.ID); err != nil {
			return "", err
		}
	}
	if stillHeading > 0 {
		return model.AssignmentStatusCompensated, nil
	}

	if head != nil && intent.AdminUserID != nil && head.AdminUserID != nil && *head.AdminUserID == *intent.AdminUserID {
		if err := s.setHeadAdminUser(ctx, head.ID, intent.PreviousAdminUserID); err != nil {
			return "", err
		}
	}

	if intent.AdminUserCreated && adminUser != nil {
		var referenced int64
		if err := db.Model(&model.InstitutionalHead{}).Where("admin_user_id = ?", adminUser.ID).Count(&referenced).Error; err != nil {
			return "", fmt.Errorf("failed to count heads of admin user: %w", err)
		}
		if referenced == 0 {
			err := s.adminUsers.DeleteAdminUser(ctx, adminUser.ID)
			if err != nil && !errors.Is(err, database.ErrAdminUserNotFound) {
				return "", err
			}
		}
	}

	return model.AssignmentStatusCompensated, nil
}

func findOptional[T any](db *gorm.DB, id uint) (*T, error) {
	var record T
	if err := db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %T %d: %w", record, id, err)
	}
	return &record, nil
}
