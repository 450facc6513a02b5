package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/college-admin-api/testutil"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHeadRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.head(t, "Asha Rao", "a@x.com")
	assert.True(t, first.IsActive)
	assert.Nil(t, first.AdminUserID)

	_, err := f.heads.Create(ctx, CreateHeadInput{Name: "Someone Else", Email: "A@X.com", Phone: "123"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	heads, err := f.heads.List(ctx)
	require.NoError(t, err)
	assert.Len(t, heads, 1)
}

func TestListHeadsNewestFirst(t *testing.T) {
	f := newFixture(t)

	f.head(t, "First", "first@x.com")
	f.head(t, "Second", "second@x.com")

	heads, err := f.heads.List(context.Background())
	require.NoError(t, err)
	require.Len(t, heads, 2)
	assert.Equal(t, "second@x.com", heads[0].Email)
}

func TestUpdateHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	f.head(t, "Ravi Kumar", "ravi@x.com")

	t.Run("not found", func(t *testing.T) {
		_, err := f.heads.Update(ctx, 999, UpdateHeadInput{})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("email collision", func(t *testing.T) {
		taken := "ravi@x.com"
		_, err := f.heads.Update(ctx, head.ID, UpdateHeadInput{Email: &taken})
		assert.True(t, apperror.IsConflict(err))
		assert.Equal(t, "asha@x.com", f.reloadHead(t, head.ID).Email)
	})

	t.Run("merges provided fields", func(t *testing.T) {
		name := "Asha R."
		inactive := false
		updated, err := f.heads.Update(ctx, head.ID, UpdateHeadInput{Name: &name, IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, "Asha R.", updated.Name)
		assert.Equal(t, "asha@x.com", updated.Email)
		assert.Equal(t, "9999999999", updated.Phone)

		stored := f.reloadHead(t, head.ID)
		assert.False(t, stored.IsActive)
	})
}

func TestRemoveAssignedHeadFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	_, err := f.assignments.AssignToInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)

	before := f.reloadHead(t, head.ID)

	err = f.heads.Remove(ctx, head.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	after := f.reloadHead(t, head.ID)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.countAdminUsers(t))
}

func TestRemoveHeadDeletesAdminUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	head := f.head(t, "Asha Rao", "asha@x.com")
	university := f.university(t, "Delhi University", "DU")
	_, err := f.assignments.AssignToInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)
	_, err = f.assignments.UnassignFromInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)

	require.NoError(t, f.heads.Remove(ctx, head.ID))

	_, err = f.heads.Get(ctx, head.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 0, f.countAdminUsers(t))

	assert.True(t, apperror.IsNotFound(f.heads.Remove(ctx, head.ID)))
}

func TestRemoveHeadRestoresHeadWhenAdminUserDeleteFails(t *testing.T) {
	db := testutil.SuperadminDB(t)
	primary := testutil.PrimaryStore(t)
	healthy := newFixtureWith(t, db, primary, primary, nil)
	broken := newFixtureWith(t, db, primary, failingDeletes{primary}, nil)
	ctx := context.Background()

	head := healthy.head(t, "Asha Rao", "asha@x.com")
	university := healthy.university(t, "Delhi University", "DU")
	_, err := healthy.assignments.AssignToInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)
	_, err = healthy.assignments.UnassignFromInstitution(ctx, head.ID, university.ID)
	require.NoError(t, err)
	before := healthy.reloadHead(t, head.ID)

	err = broken.heads.Remove(ctx, head.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errPrimaryDown)

	after := healthy.reloadHead(t, head.ID)
	assert.Equal(t, before.Email, after.Email)
	assert.Equal(t, before.AdminUserID, after.AdminUserID)
	assert.Equal(t, 1, healthy.countAdminUsers(t))
}
