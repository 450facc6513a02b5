package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/testutil"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	primary      *database.PostgreSQLStore
	heads        *HeadService
	assignments  *AssignmentService
	universities *UniversityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SuperadminDB(t)
	primary := testutil.PrimaryStore(t)
	return newFixtureWith(t, db, primary, primary, nil)
}

func newFixtureWith(t *testing.T, db *gorm.DB, primary *database.PostgreSQLStore, adminUsers AdminUserStore, locker Locker) *fixture {
	t.Helper()

	heads := NewHeadService(db, adminUsers)
	assignments := NewAssignmentService(db, adminUsers, AssignmentOptions{
		DefaultPassword: "Admin@123",
		Locker:          locker,
		Retries:         2,
		RetryBackoff:    time.Millisecond,
	})

	return &fixture{
		db:           db,
		primary:      primary,
		heads:        heads,
		assignments:  assignments,
		universities: NewUniversityService(db, heads, assignments),
	}
}

func (f *fixture) head(t *testing.T, name, email string) *model.InstitutionalHead {
	t.Helper()
	head, err := f.heads.Create(context.Background(), CreateHeadInput{Name: name, Email: email, Phone: "9999999999"})
	require.NoError(t, err)
	return head
}

func (f *fixture) university(t *testing.T, name, code string) *model.University {
	t.Helper()
	university, err := f.universities.Create(context.Background(), CreateUniversityInput{
		Name:            name,
		Code:            code,
		InstitutionType: model.InstitutionTypeUniversity,
	})
	require.NoError(t, err)
	return university
}

func (f *fixture) reloadHead(t *testing.T, id uint) model.InstitutionalHead {
	t.Helper()
	var head model.InstitutionalHead
	require.NoError(t, f.db.First(&head, id).Error)
	return head
}

func (f *fixture) reloadUniversity(t *testing.T, id uint) model.University {
	t.Helper()
	var university model.University
	require.NoError(t, f.db.First(&university, id).Error)
	return university
}

func (f *fixture) countAdminUsers(t *testing.T) int {
	t.Helper()
	var count int
	require.NoError(t, f.primary.DB().Get(&count, `SELECT COUNT(1) FROM admin_users`))
	return count
}

// failLinkUniversityHead makes every attempt to set a university's head abort
func (f *fixture) failLinkUniversityHead(t *testing.T) {
	t.Helper()
	require.NoError(t, f.db.Exec(`
		CREATE TRIGGER fail_link_university_head
		BEFORE UPDATE OF institutional_head_id ON universities
		WHEN NEW.institutional_head_id IS NOT NULL
		BEGIN
			SELECT RAISE(ABORT, 'link refused');
		END`).Error)
}

// failingDeletes is a primary store whose deletes always fail
type failingDeletes struct {
	*database.PostgreSQLStore
}

var errPrimaryDown = errors.New("primary datastore unavailable")

func (failingDeletes) DeleteAdminUser(ctx context.Context, id uint) error {
	return errPrimaryDown
}

// heldLocker refuses every lock
type heldLocker struct{}

func (heldLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	return nil, cache.ErrLockHeld
}
