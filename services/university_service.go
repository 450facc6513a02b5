package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services/saga"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UniversityService handles university CRUD, optionally provisioning a head inline
type UniversityService struct {
	db          *gorm.DB
	heads       *HeadService
	assignments *AssignmentService
}

// NewUniversityService creates a new university service
func NewUniversityService(db *gorm.DB, heads *HeadService, assignments *AssignmentService) *UniversityService {
	return &UniversityService{db: db, heads: heads, assignments: assignments}
}

// CreateUniversityInput represents the data needed to create a university
type CreateUniversityInput struct {
	Name              string
	Code              string
	InstitutionType   model.InstitutionType
	CollegeType       *string
	Location          string
	Website           string
	IsActive          *bool
	InstitutionalHead *CreateHeadInput
}

// UpdateUniversityInput carries the fields to change; nil fields are left alone
type UpdateUniversityInput struct {
	Name              *string
	Code              *string
	InstitutionType   *model.InstitutionType
	CollegeType       *string
	Location          *string
	Website           *string
	IsActive          *bool
	InstitutionalHead *UpdateHeadInput
}

// ListUniversitiesFilter narrows and pages the university list
type ListUniversitiesFilter struct {
	Search          string
	IsActive        *bool
	InstitutionType string
	Page            int
	Limit           int
}

func errDuplicateCode(code string) error {
	return apperror.Conflict(fmt.Sprintf("university with code %s already exists", code))
}

// resolveCollegeType enforces that collegeType is set exactly for colleges
func resolveCollegeType(institutionType model.InstitutionType, collegeType *string) (*string, error) {
	switch institutionType {
	case model.InstitutionTypeCollege:
		if collegeType == nil || strings.TrimSpace(*collegeType) == "" {
			return nil, apperror.Validation(
				"collegeType is required when institutionType is COLLEGE",
				map[string]string{"collegeType": "collegeType is required for colleges"},
			)
		}
		trimmed := strings.TrimSpace(*collegeType)
		return &trimmed, nil
	case model.InstitutionTypeUniversity:
		return nil, nil
	default:
		return nil, apperror.Validation(
			fmt.Sprintf("unknown institutionType %q", institutionType),
			map[string]string{"institutionType": "institutionType must be one of: UNIVERSITY COLLEGE"},
		)
	}
}

func (s *UniversityService) codeTaken(db *gorm.DB, code string, exceptID uint) (bool, error) {
	var count int64
	query := db.Model(&model.University{}).Where("code = ?", code)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check university code: %w", err)
	}
	return count > 0, nil
}

// Create inserts a university and, when head data is given, creates and assigns
// the head. A failure at any point leaves neither row behind.
func (s *UniversityService) Create(ctx context.Context, in CreateUniversityInput) (*model.University, error) {
	db := s.db.WithContext(ctx)

	if in.InstitutionType == "" {
		in.InstitutionType = model.InstitutionTypeUniversity
	}
	collegeType, err := resolveCollegeType(in.InstitutionType, in.CollegeType)
	if err != nil {
		return nil, err
	}

	code := strings.ToUpper(validation.SanitizeString(in.Code))
	taken, err := s.codeTaken(db, code, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errDuplicateCode(code)
	}

	university := &model.University{
		Name:            validation.SanitizeString(in.Name),
		Code:            code,
		InstitutionType: in.InstitutionType,
		CollegeType:     collegeType,
		Location:        validation.SanitizeString(in.Location),
		Website:         validation.SanitizeString(in.Website),
		IsActive:        true,
	}

	var head *model.InstitutionalHead

	flow := saga.New("create_university", saga.WithFields(logrus.Fields{"code": code})).Add(
		saga.Step{
			Name: "insert_university",
			Do: func(ctx context.Context) error {
				if err := s.db.WithContext(ctx).Create(university).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return errDuplicateCode(code)
					}
					return fmt.Errorf("failed to create university: %w", err)
				}
				// IsActive has a database default, so false needs its own write
				if in.IsActive != nil && !*in.IsActive {
					university.IsActive = false
					return s.db.WithContext(ctx).Model(university).Update("is_active", false).Error
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.db.WithContext(ctx).Delete(&model.University{}, university.ID).Error
			},
		},
	)

	if in.InstitutionalHead != nil {
		flow.Add(
			saga.Step{
				Name: "create_head",
				Do: func(ctx context.Context) error {
					created, err := s.heads.Create(ctx, *in.InstitutionalHead)
					head = created
					return err
				},
				Compensate: func(ctx context.Context) error {
					return s.db.WithContext(ctx).Delete(&model.InstitutionalHead{}, head.ID).Error
				},
			},
			saga.Step{
				Name: "assign_head",
				Do: func(ctx context.Context) error {
					_, err := s.assignments.AssignToInstitution(ctx, head.ID, university.ID)
					return err
				},
			},
		)
	}

	if err := flow.Run(ctx); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"university_id": university.ID, "code": code}).Info("created university")
	return loadUniversity(db, university.ID)
}

// List returns universities with their heads, newest first
func (s *UniversityService) List(ctx context.Context, filter ListUniversitiesFilter) ([]model.University, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.University{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.InstitutionType != "" {
		query = query.Where("institution_type = ?", strings.ToUpper(filter.InstitutionType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count universities: %w", err)
	}

	universities := []model.University{}
	query = query.Preload("InstitutionalHead").Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	if err := query.Find(&universities).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list universities: %w", err)
	}

	return universities, total, nil
}

// Get loads one university with its head
func (s *UniversityService) Get(ctx context.Context, id uint) (*model.University, error) {
	return loadUniversity(s.db.WithContext(ctx), id)
}

// Update merges the provided fields into the university. Nested head data
// updates the current head, or creates and assigns one when there is none.
func (s *UniversityService) Update(ctx context.Context, id uint, in UpdateUniversityInput) (*model.University, error) {
	db := s.db.WithContext(ctx)

	current, err := loadUniversity(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	restore := map[string]interface{}{}
	set := func(column string, value, previous interface{}) {
		updates[column] = value
		restore[column] = previous
	}

	if in.Name != nil {
		set("name", validation.SanitizeString(*in.Name), current.Name)
	}
	if in.Code != nil {
		code := strings.ToUpper(validation.SanitizeString(*in.Code))
		if code != current.Code {
			taken, err := s.codeTaken(db, code, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, errDuplicateCode(code)
			}
			set("code", code, current.Code)
		}
	}
	if in.Location != nil {
		set("location", validation.SanitizeString(*in.Location), current.Location)
	}
	if in.Website != nil {
		set("website", validation.SanitizeString(*in.Website), current.Website)
	}
	if in.IsActive != nil {
		set("is_active", *in.IsActive, current.IsActive)
	}

	// the invariant is checked against the merged state
	institutionType := current.InstitutionType
	if in.InstitutionType != nil {
		institutionType = *in.InstitutionType
	}
	collegeType := current.CollegeType
	if in.CollegeType != nil {
		collegeType = in.CollegeType
	}
	collegeType, err = resolveCollegeType(institutionType, collegeType)
	if err != nil {
		return nil, err
	}
	if in.InstitutionType != nil || in.CollegeType != nil {
		set("institution_type", institutionType, current.InstitutionType)
		set("college_type", collegeType, current.CollegeType)
	}

	flow := saga.New("update_university", saga.WithFields(logrus.Fields{"university_id": id}))

	if len(updates) > 0 {
		flow.Add(saga.Step{
			Name: "save_university",
			Do: func(ctx context.Context) error {
				err := s.db.WithContext(ctx).Model(&model.University{}).Where("id = ?", id).Updates(updates).Error
				if err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return errDuplicateCode(fmt.Sprint(updates["code"]))
					}
					return fmt.Errorf("failed to update university: %w", err)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.db.WithContext(ctx).Model(&model.University{}).Where("id = ?", id).Updates(restore).Error
			},
		})
	}

	if in.InstitutionalHead != nil {
		if current.InstitutionalHeadID != nil {
			s.addUpdateHeadStep(flow, *current.InstitutionalHeadID, *in.InstitutionalHead)
		} else if err := s.addCreateAndAssignSteps(flow, id, *in.InstitutionalHead); err != nil {
			return nil, err
		}
	}

	if err := flow.Run(ctx); err != nil {
		return nil, err
	}

	return loadUniversity(db, id)
}

func (s *UniversityService) addUpdateHeadStep(flow *saga.Saga, headID uint, in UpdateHeadInput) {
	var snapshot *model.InstitutionalHead

	flow.Add(saga.Step{
		Name: "update_head",
		Do: func(ctx context.Context) error {
			previous, err := s.heads.Get(ctx, headID)
			if err != nil {
				return err
			}
			snapshot = previous
			_, err = s.heads.Update(ctx, headID, in)
			return err
		},
		Compensate: func(ctx context.Context) error {
			return s.db.WithContext(ctx).Save(snapshot).Error
		},
	})
}

func (s *UniversityService) addCreateAndAssignSteps(flow *saga.Saga, universityID uint, in UpdateHeadInput) error {
	if in.Name == nil || in.Email == nil {
		return apperror.Validation(
			"name and email are required to create an institutional head",
			map[string]string{
				"institutionalHead.name":  "name is required",
				"institutionalHead.email": "email is required",
			},
		)
	}

	create := CreateHeadInput{Name: *in.Name, Email: *in.Email}
	if in.Phone != nil {
		create.Phone = *in.Phone
	}
	if in.Address != nil {
		create.Address = *in.Address
	}

	var head *model.InstitutionalHead

	flow.Add(
		saga.Step{
			Name: "create_head",
			Do: func(ctx context.Context) error {
				created, err := s.heads.Create(ctx, create)
				head = created
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.db.WithContext(ctx).Delete(&model.InstitutionalHead{}, head.ID).Error
			},
		},
		saga.Step{
			Name: "assign_head",
			Do: func(ctx context.Context) error {
				_, err := s.assignments.AssignToInstitution(ctx, head.ID, universityID)
				return err
			},
		},
	)
	return nil
}

// Remove deletes the university. Its head and admin user are kept.
func (s *UniversityService) Remove(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.University{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete university: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errUniversityNotFound(id)
	}

	logrus.WithField("university_id", id).Info("removed university")
	return nil
}
