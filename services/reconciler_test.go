package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// staleIntent records an intent as if a process had died mid-assignment
func staleIntent(t *testing.T, f *fixture, headID, universityID uint, adminUserID *uint, created bool) *model.AssignmentIntent {
	t.Helper()
	intent := &model.AssignmentIntent{
		ID:               uuid.NewString(),
		HeadID:           headID,
		UniversityID:     universityID,
		Status:           model.AssignmentStatusPending,
		AdminUserID:      adminUserID,
		AdminUserCreated: created,
		Steps:            datatypes.JSON("[]"),
	}
	require.NoError(t, f.db.Create(intent).Error)
	return intent
}

func (f *fixture) createAdminUser(t *testing.T, username, email string) *model.AdminUser {
	t.Helper()
	user := &model.AdminUser{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		FullName:     username,
		Role:         model.AdminUserRole,
		IsActive:     true,
	}
	require.NoError(t, f.primary.CreateAdminUser(context.Background(), user))
	return user
}

func TestReconcileCompletesLinkedIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	user := f.createAdminUser(t, "asha", "asha@x.com")

	require.NoError(t, f.db.Model(&model.InstitutionalHead{}).Where("id = ?", head.ID).Update("admin_user_id", user.ID).Error)
	require.NoError(t, f.db.Model(&model.University{}).Where("id = ?", university.ID).Update("institutional_head_id", head.ID).Error)
	intent := staleIntent(t, f, head.ID, university.ID, &user.ID, true)

	report, err := f.assignments.Reconcile(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Completed: 1}, report)

	var stored model.AssignmentIntent
	require.NoError(t, f.db.First(&stored, "id = ?", intent.ID).Error)
	assert.Equal(t, model.AssignmentStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, 1, f.countAdminUsers(t))
}

func TestReconcileReversesHalfLinkedIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	user := f.createAdminUser(t, "asha", "asha@x.com")

	// the process stopped after linking the head but before linking the university
	require.NoError(t, f.db.Model(&model.InstitutionalHead{}).Where("id = ?", head.ID).Update("admin_user_id", user.ID).Error)
	intent := staleIntent(t, f, head.ID, university.ID, &user.ID, true)

	report, err := f.assignments.Reconcile(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Compensated: 1}, report)

	assert.Nil(t, f.reloadHead(t, head.ID).AdminUserID)
	assert.Nil(t, f.reloadUniversity(t, university.ID).InstitutionalHeadID)
	assert.Equal(t, 0, f.countAdminUsers(t))

	var stored model.AssignmentIntent
	require.NoError(t, f.db.First(&stored, "id = ?", intent.ID).Error)
	assert.Equal(t, model.AssignmentStatusCompensated, stored.Status)

	// settled intents are not picked up again
	report, err = f.assignments.Reconcile(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestReconcileLeavesFreshIntents(t *testing.T) {
	f := newFixture(t)

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	staleIntent(t, f, head.ID, university.ID, nil, false)

	report, err := f.assignments.Reconcile(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}

func TestReconcileKeepsReusedAdminUser(t *testing.T) {
	f := newFixture(t)

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	user := f.createAdminUser(t, "asha", "asha@x.com")
	staleIntent(t, f, head.ID, university.ID, &user.ID, false)

	report, err := f.assignments.Reconcile(context.Background(), -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Compensated)
	assert.Equal(t, 1, f.countAdminUsers(t))
}

func TestReconcileKeepsAdminUserOfHeadLeadingAnotherUniversity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	du := f.university(t, "Delhi University", "DU")
	jnu := f.university(t, "Jawaharlal Nehru University", "JNU")

	// a run for DU stopped after linking the head to its new admin user
	user := f.createAdminUser(t, "asha", "asha@x.com")
	require.NoError(t, f.db.Model(&model.InstitutionalHead{}).Where("id = ?", head.ID).Update("admin_user_id", user.ID).Error)
	stale := staleIntent(t, f, head.ID, du.ID, &user.ID, true)

	// meanwhile the head was assigned to JNU, reusing that admin user
	_, err := f.assignments.AssignToInstitution(ctx, head.ID, jnu.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.AssignmentIntent{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	report, err := f.assignments.Reconcile(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Scanned: 1, Compensated: 1}, report)

	stored := f.reloadHead(t, head.ID)
	require.NotNil(t, stored.AdminUserID)
	assert.Equal(t, user.ID, *stored.AdminUserID)
	assert.Equal(t, head.ID, *f.reloadUniversity(t, jnu.ID).InstitutionalHeadID)
	assert.Nil(t, f.reloadUniversity(t, du.ID).InstitutionalHeadID)
	assert.Equal(t, 1, f.countAdminUsers(t))
}

func TestAssignmentReusesAdminUserRegardlessOfEmailCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := f.createAdminUser(t, "asha", "Asha@X.com")
	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")

	_, err := f.assignments.AssignToInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)

	stored := f.reloadHead(t, head.ID)
	require.NotNil(t, stored.AdminUserID)
	assert.Equal(t, existing.ID, *stored.AdminUserID)
	assert.Equal(t, 1, f.countAdminUsers(t))
}
