package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedOptions carries the values seeds read from configuration
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	SampleData    bool
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll(ctx context.Context, opts SeedOptions) error {
	logrus.Info("starting database seeding")

	if err := s.SeedSuperAdmin(ctx, opts.AdminEmail, opts.AdminPassword); err != nil {
		return errors.Wrap(err, "seed super admin")
	}

	if opts.SampleData {
		if err := s.SeedUniversities(ctx); err != nil {
			return errors.Wrap(err, "seed universities")
		}
	}

	logrus.Info("database seeding completed")
	return nil
}

// SeedSuperAdmin creates the initial super admin account if none exists
func (s *Seeder) SeedSuperAdmin(ctx context.Context, email, password string) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.SuperAdmin{}).Where("role = ?", model.SuperAdminRole).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logrus.Info("super admin already exists, skipping")
		return nil
	}

	if email == "" || password == "" {
		logrus.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping super admin creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	admin := &model.SuperAdmin{
		Email:        validation.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.SuperAdminRole,
		IsActive:     true,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logrus.WithField("email", admin.Email).Info("created super admin")
	return nil
}

// SeedUniversities creates sample universities without heads
func (s *Seeder) SeedUniversities(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logrus.Info("universities already exist, skipping")
		return nil
	}

	engineering := "ENGINEERING"
	universities := []model.University{
		{
			Name:            "Dr. A.P.J. Abdul Kalam Technical University",
			Code:            "AKTU",
			InstitutionType: model.InstitutionTypeUniversity,
			Location:        "Lucknow, Uttar Pradesh",
			Website:         "https://aktu.ac.in",
			IsActive:        true,
		},
		{
			Name:            "University of Delhi",
			Code:            "DU",
			InstitutionType: model.InstitutionTypeUniversity,
			Location:        "Delhi",
			Website:         "https://du.ac.in",
			IsActive:        true,
		},
		{
			Name:            "Institute of Engineering and Technology",
			Code:            "IET-LKO",
			InstitutionType: model.InstitutionTypeCollege,
			CollegeType:     &engineering,
			Location:        "Lucknow, Uttar Pradesh",
			Website:         "https://ietlucknow.ac.in",
			IsActive:        true,
		},
	}

	if err := db.Create(&universities).Error; err != nil {
		return err
	}

	logrus.WithField("count", len(universities)).Info("created sample universities")
	return nil
}
