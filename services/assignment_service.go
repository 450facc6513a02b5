package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services/saga"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StepProvisionAdminUser = "provision_admin_user"
	StepLinkHeadAdminUser  = "link_head_admin_user"
	StepLinkUniversityHead = "link_university_head"
)

// Locker guards an assignment against a concurrent one on the same university
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// AssignmentOptions configures an AssignmentService
type AssignmentOptions struct {
	DefaultPassword string
	Locker          Locker // optional
	Retries         int
	RetryBackoff    time.Duration
}

// AssignmentService links institutional heads to universities and provisions
// their admin users in the primary datastore
type AssignmentService struct {
	db              *gorm.DB
	adminUsers      AdminUserStore
	locker          Locker
	defaultPassword string
	retries         int
	retryBackoff    time.Duration
	now             func() time.Time
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, adminUsers AdminUserStore, opts AssignmentOptions) *AssignmentService {
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = "Admin@123"
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}

	return &AssignmentService{
		db:              db,
		adminUsers:      adminUsers,
		locker:          opts.Locker,
		defaultPassword: opts.DefaultPassword,
		retries:         opts.Retries,
		retryBackoff:    opts.RetryBackoff,
		now:             time.Now,
	}
}

func errUniversityNotFound(id uint) error {
	return apperror.NotFound(fmt.Sprintf("university %d not found", id))
}

func loadUniversity(db *gorm.DB, id uint) (*model.University, error) {
	var university model.University
	if err := db.Preload("InstitutionalHead").First(&university, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUniversityNotFound(id)
		}
		return nil, fmt.Errorf("failed to load university: %w", err)
	}
	return &university, nil
}

// AssignToInstitution makes head the head of university, creating or reusing an
// admin user with the head's email. Either every link is in place afterwards or
// none is.
func (s *AssignmentService) AssignToInstitution(ctx context.Context, headID, universityID uint) (*model.University, error) {
	db := s.db.WithContext(ctx)

	head, err := loadHead(db, headID)
	if err != nil {
		return nil, err
	}

	university, err := loadUniversity(db, universityID)
	if err != nil {
		return nil, err
	}

	if university.InstitutionalHeadID != nil {
		return nil, apperror.Conflict("university already has a head")
	}

	release, err := s.lock(ctx, universityID)
	if err != nil {
		return nil, err
	}
	defer release()

	intent := &model.AssignmentIntent{
		ID:                  uuid.NewString(),
		HeadID:              headID,
		UniversityID:        universityID,
		Status:              model.AssignmentStatusPending,
		PreviousAdminUserID: head.AdminUserID,
		Steps:               datatypes.JSON("[]"),
	}
	if err := db.Create(intent).Error; err != nil {
		return nil, fmt.Errorf("failed to record assignment intent: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"intent_id":     intent.ID,
		"head_id":       headID,
		"university_id": universityID,
	})

	var completed []string
	var adminUserID uint
	var created bool

	flow := saga.New("assign_head",
		saga.WithRetries(s.retries, s.retryBackoff),
		saga.WithFields(logrus.Fields{"intent_id": intent.ID}),
		saga.WithObserver(func(ctx context.Context, event saga.Event) {
			if event.Kind != saga.StepCompleted {
				return
			}
			completed = append(completed, event.Step)
			steps, _ := json.Marshal(completed)
			s.updateIntent(ctx, intent.ID, map[string]interface{}{"steps": datatypes.JSON(steps)})
		}),
	).Add(
		saga.Step{
			Name: StepProvisionAdminUser,
			Do: func(ctx context.Context) error {
				user, isNew, err := s.provisionAdminUser(ctx, head)
				if err != nil {
					return err
				}
				adminUserID, created = user.ID, isNew
				// recorded before the next step so the reconciler can find the row
				s.updateIntent(ctx, intent.ID, map[string]interface{}{
					"admin_user_id":      user.ID,
					"admin_user_created": isNew,
				})
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if !created {
					return nil
				}
				err := s.adminUsers.DeleteAdminUser(ctx, adminUserID)
				if err != nil && !errors.Is(err, database.ErrAdminUserNotFound) {
					return err
				}
				return nil
			},
		},
		saga.Step{
			Name: StepLinkHeadAdminUser,
			Do: func(ctx context.Context) error {
				return s.setHeadAdminUser(ctx, headID, &adminUserID)
			},
			Compensate: func(ctx context.Context) error {
				return s.setHeadAdminUser(ctx, headID, head.AdminUserID)
			},
		},
		saga.Step{
			Name: StepLinkUniversityHead,
			Do: func(ctx context.Context) error {
				result := s.db.WithContext(ctx).Model(&model.University{}).
					Where("id = ? AND institutional_head_id IS NULL", universityID).
					Update("institutional_head_id", headID)
				if result.Error != nil {
					return fmt.Errorf("failed to link university head: %w", result.Error)
				}
				if result.RowsAffected == 0 {
					return apperror.Conflict("university already has a head")
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return clearUniversityHead(s.db.WithContext(ctx), universityID, headID)
			},
		},
	)

	if err := flow.Run(ctx); err != nil {
		status := model.AssignmentStatusCompensated
		var sagaErr *saga.Error
		if errors.As(err, &sagaErr) && !sagaErr.Compensated() {
			status = model.AssignmentStatusFailed
		}
		s.updateIntent(ctx, intent.ID, map[string]interface{}{
			"status":     status,
			"last_error": err.Error(),
		})
		log.WithError(err).WithField("status", status).Warn("assignment rolled back")
		return nil, err
	}

	s.updateIntent(ctx, intent.ID, map[string]interface{}{"status": model.AssignmentStatusCompleted})
	log.WithField("admin_user_id", adminUserID).Info("assigned institutional head")

	return loadUniversity(db, universityID)
}

// UnassignFromInstitution clears the university's head if it is still headID.
// The head keeps its admin user for a later reassignment.
func (s *AssignmentService) UnassignFromInstitution(ctx context.Context, headID, universityID uint) (*model.University, error) {
	db := s.db.WithContext(ctx)

	if err := clearUniversityHead(db, universityID, headID); err != nil {
		return nil, err
	}

	return loadUniversity(db, universityID)
}

func clearUniversityHead(db *gorm.DB, universityID, headID uint) error {
	err := db.Model(&model.University{}).
		Where("id = ? AND institutional_head_id = ?", universityID, headID).
		Update("institutional_head_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear university head: %w", err)
	}
	return nil
}

func (s *AssignmentService) setHeadAdminUser(ctx context.Context, headID uint, adminUserID *uint) error {
	err := s.db.WithContext(ctx).Model(&model.InstitutionalHead{}).
		Where("id = ?", headID).
		Update("admin_user_id", adminUserID).Error
	if err != nil {
		return fmt.Errorf("failed to set head admin user: %w", err)
	}
	return nil
}

// provisionAdminUser returns the admin user with the head's email, creating it
// if needed. The bool reports whether it was created.
func (s *AssignmentService) provisionAdminUser(ctx context.Context, head *model.InstitutionalHead) (*model.AdminUser, bool, error) {
	existing, err := s.adminUsers.FindAdminUserByEmail(ctx, head.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrAdminUserNotFound) {
		return nil, false, err
	}

	username, err := s.uniqueUsername(ctx, head.Email)
	if err != nil {
		return nil, false, err
	}

	hash, err := auth.HashPassword(s.defaultPassword)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash default password: %w", err)
	}

	user := &model.AdminUser{
		Username:     username,
		Email:        head.Email,
		PasswordHash: hash,
		FullName:     head.Name,
		Role:         model.AdminUserRole,
		IsActive:     true,
	}
	if err := s.adminUsers.CreateAdminUser(ctx, user); err != nil {
		return nil, false, err
	}

	return user, true, nil
}

// uniqueUsername derives a username from the email local-part, suffixed with
// the current unix millis when the plain one is taken
func (s *AssignmentService) uniqueUsername(ctx context.Context, email string) (string, error) {
	username := strings.ToLower(email)
	if at := strings.Index(username, "@"); at > 0 {
		username = username[:at]
	}

	taken, err := s.adminUsers.AdminUsernameExists(ctx, username)
	if err != nil {
		return "", err
	}
	if !taken {
		return username, nil
	}

	return fmt.Sprintf("%s%d", username, s.now().UnixMilli()), nil
}

func (s *AssignmentService) lock(ctx context.Context, universityID uint) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("assign:university:%d", universityID)
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, apperror.Conflict("assignment already in progress for this university")
		}
		// the conditional update still guards the invariant
		logrus.WithError(err).WithField("key", key).Warn("assignment lock unavailable")
		return noop, nil
	}

	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to release assignment lock")
		}
	}, nil
}

func (s *AssignmentService) updateIntent(ctx context.Context, id string, updates map[string]interface{}) {
	err := s.db.WithContext(context.WithoutCancel(ctx)).
		Model(&model.AssignmentIntent{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		logrus.WithError(err).WithField("intent_id", id).Error("failed to update assignment intent")
	}
}
