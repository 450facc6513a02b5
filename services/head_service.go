package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services/saga"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminUserStore is the slice of the primary datastore the services need
type AdminUserStore interface {
	FindAdminUserByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	GetAdminUserByID(ctx context.Context, id uint) (*model.AdminUser, error)
	AdminUsernameExists(ctx context.Context, username string) (bool, error)
	CreateAdminUser(ctx context.Context, user *model.AdminUser) error
	DeleteAdminUser(ctx context.Context, id uint) error
}

var _ AdminUserStore = (*database.PostgreSQLStore)(nil)

// HeadService handles the institutional head lifecycle
type HeadService struct {
	db         *gorm.DB
	adminUsers AdminUserStore
}

// NewHeadService creates a new head service
func NewHeadService(db *gorm.DB, adminUsers AdminUserStore) *HeadService {
	return &HeadService{db: db, adminUsers: adminUsers}
}

// CreateHeadInput represents the data needed to create a head
type CreateHeadInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// UpdateHeadInput carries the fields to change; nil fields are left alone
type UpdateHeadInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	IsActive *bool
}

func errHeadNotFound(id uint) error {
	return apperror.NotFound(fmt.Sprintf("institutional head %d not found", id))
}

func errDuplicateEmail(email string) error {
	return apperror.Conflict(fmt.Sprintf("institutional head with email %s already exists", email))
}

// Create inserts a new head with no admin user
func (s *HeadService) Create(ctx context.Context, in CreateHeadInput) (*model.InstitutionalHead, error) {
	db := s.db.WithContext(ctx)
	email := validation.NormalizeEmail(in.Email)

	var count int64
	if err := db.Model(&model.InstitutionalHead{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check head email: %w", err)
	}
	if count > 0 {
		return nil, errDuplicateEmail(email)
	}

	head := &model.InstitutionalHead{
		Name:     validation.SanitizeString(in.Name),
		Email:    email,
		Phone:    validation.SanitizeString(in.Phone),
		Address:  validation.SanitizeString(in.Address),
		IsActive: true,
	}

	if err := db.Create(head).Error; err != nil {
		// the unique index catches the loser of a concurrent create
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateEmail(email)
		}
		return nil, fmt.Errorf("failed to create institutional head: %w", err)
	}

	logrus.WithFields(logrus.Fields{"head_id": head.ID, "email": head.Email}).Info("created institutional head")
	return head, nil
}

// List returns all heads, newest first
func (s *HeadService) List(ctx context.Context) ([]model.InstitutionalHead, error) {
	heads := []model.InstitutionalHead{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&heads).Error; err != nil {
		return nil, fmt.Errorf("failed to list institutional heads: %w", err)
	}
	return heads, nil
}

// Get loads one head
func (s *HeadService) Get(ctx context.Context, id uint) (*model.InstitutionalHead, error) {
	return loadHead(s.db.WithContext(ctx), id)
}

func loadHead(db *gorm.DB, id uint) (*model.InstitutionalHead, error) {
	var head model.InstitutionalHead
	if err := db.First(&head, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errHeadNotFound(id)
		}
		return nil, fmt.Errorf("failed to load institutional head: %w", err)
	}
	return &head, nil
}

// Update merges the provided fields into the head
func (s *HeadService) Update(ctx context.Context, id uint, in UpdateHeadInput) (*model.InstitutionalHead, error) {
	db := s.db.WithContext(ctx)

	head, err := loadHead(db, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if email != head.Email {
			var count int64
			if err := db.Model(&model.InstitutionalHead{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to check head email: %w", err)
			}
			if count > 0 {
				return nil, errDuplicateEmail(email)
			}
			head.Email = email
		}
	}
	if in.Name != nil {
		head.Name = validation.SanitizeString(*in.Name)
	}
	if in.Phone != nil {
		head.Phone = validation.SanitizeString(*in.Phone)
	}
	if in.Address != nil {
		head.Address = validation.SanitizeString(*in.Address)
	}
	if in.IsActive != nil {
		head.IsActive = *in.IsActive
	}

	if err := db.Save(head).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateEmail(head.Email)
		}
		return nil, fmt.Errorf("failed to update institutional head: %w", err)
	}

	return head, nil
}

// Remove deletes an unassigned head together with its admin user. If the admin
// user cannot be deleted the head is restored.
func (s *HeadService) Remove(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	head, err := loadHead(db, id)
	if err != nil {
		return err
	}

	assigned, err := countUniversitiesHeadedBy(db, id)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return errHeadAssigned(id)
	}

	snapshot := *head

	flow := saga.New("remove_head", saga.WithFields(logrus.Fields{"head_id": id})).Add(
		saga.Step{
			Name: "delete_head",
			Do: func(ctx context.Context) error {
				// the NOT EXISTS guard rejects an assignment that landed after the count
				result := s.db.WithContext(ctx).
					Where("id = ? AND NOT EXISTS (SELECT 1 FROM universities WHERE institutional_head_id = ?)", id, id).
					Delete(&model.InstitutionalHead{})
				if result.Error != nil {
					return fmt.Errorf("failed to delete institutional head: %w", result.Error)
				}
				if result.RowsAffected == 0 {
					return errHeadAssigned(id)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				restored := snapshot
				return s.db.WithContext(ctx).Create(&restored).Error
			},
		},
		saga.Step{
			Name: "delete_admin_user",
			Do: func(ctx context.Context) error {
				if snapshot.AdminUserID == nil {
					return nil
				}
				err := s.adminUsers.DeleteAdminUser(ctx, *snapshot.AdminUserID)
				if err != nil && !errors.Is(err, database.ErrAdminUserNotFound) {
					return err
				}
				return nil
			},
		},
	)

	if err := flow.Run(ctx); err != nil {
		return err
	}

	logrus.WithField("head_id", id).Info("removed institutional head")
	return nil
}

func errHeadAssigned(id uint) error {
	return apperror.Validation(fmt.Sprintf("institutional head %d is assigned to a university and cannot be deleted", id))
}

func countUniversitiesHeadedBy(db *gorm.DB, headID uint) (int64, error) {
	var count int64
	if err := db.Model(&model.University{}).Where("institutional_head_id = ?", headID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count universities of head: %w", err)
	}
	return count, nil
}
