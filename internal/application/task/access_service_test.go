package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

type accessFixture struct {
	tasks  *MockTaskRepository
	access *MockAccessRepository
	users  *MockUserRepository
	events *recordingPublisher
	perms  *TaskPermissionService
	svc    *AccessService

	owner uuid.UUID
	task  *task.Task
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	f := &accessFixture{
		tasks:  new(MockTaskRepository),
		access: new(MockAccessRepository),
		users:  new(MockUserRepository),
		events: &recordingPublisher{},
		owner:  uuid.New(),
	}
	f.perms = NewTaskPermissionService(f.tasks, f.access, newTestStore(t), time.Minute, zap.NewNop())
	f.svc = NewAccessService(f.tasks, f.access, f.users, f.perms, f.events, zap.NewNop())
	f.task = newTestTask(t, f.owner, "shared")

	f.access.On("FindByTaskAndUser", mock.Anything, f.task.ID, f.owner).
		Return(task.NewOwnerAccess(f.task.ID, f.owner), nil)
	f.tasks.On("FindByID", mock.Anything, f.task.ID).Return(f.task, nil)
	f.users.On("FindByID", mock.Anything, mock.Anything).Return(nil, assert.AnError).Maybe()
	return f
}

// share gives userID a grant found by id and by (task, user) until revoked
func (f *accessFixture) share(t *testing.T, userID uuid.UUID, level task.AccessLevel) *task.TaskAccess {
	t.Helper()
	grant, err := task.NewTaskAccess(f.task.ID, userID, level)
	require.NoError(t, err)
	f.access.On("FindByID", mock.Anything, grant.ID).Return(grant, nil)
	f.access.On("FindByTaskAndUser", mock.Anything, f.task.ID, userID).Return(grant, nil).Once()
	f.access.On("FindByTaskAndUser", mock.Anything, f.task.ID, userID).Return(nil, task.ErrAccessNotFound)
	return grant
}

func TestAccessService_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("owner revokes and the task disappears", func(t *testing.T) {
		f := newAccessFixture(t)
		viewer := uuid.New()
		grant := f.share(t, viewer, task.AccessView)
		f.access.On("Delete", mock.Anything, grant.ID).Return(nil)

		level, err := f.perms.Level(ctx, viewer, f.task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.AccessView, level)

		require.NoError(t, f.svc.Revoke(ctx, f.owner, f.task.ID, grant.ID))

		_, err = f.perms.Level(ctx, viewer, f.task.ID)
		assert.ErrorIs(t, err, task.ErrAccessDenied)

		removed := f.events.ofType(task.EventTypeAccessRemoved)
		require.Len(t, removed, 1)
		assert.Equal(t, viewer, removed[0].(*task.AccessRemovedEvent).UserID)
	})

	t.Run("grantee leaves", func(t *testing.T) {
		f := newAccessFixture(t)
		editor := uuid.New()
		grant := f.share(t, editor, task.AccessEdit)
		f.access.On("Delete", mock.Anything, grant.ID).Return(nil)

		require.NoError(t, f.svc.Revoke(ctx, editor, f.task.ID, grant.ID))
		assert.Len(t, f.events.ofType(task.EventTypeAccessRemoved), 1)
	})

	t.Run("owner grant is immutable", func(t *testing.T) {
		f := newAccessFixture(t)
		ownerGrant := task.NewOwnerAccess(f.task.ID, f.owner)
		f.access.On("FindByID", mock.Anything, ownerGrant.ID).Return(ownerGrant, nil)

		err := f.svc.Revoke(ctx, f.owner, f.task.ID, ownerGrant.ID)

		assert.ErrorIs(t, err, task.ErrOwnerAccessImmutable)
		f.access.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("another grantee cannot revoke", func(t *testing.T) {
		f := newAccessFixture(t)
		viewer, other := uuid.New(), uuid.New()
		grant := f.share(t, viewer, task.AccessView)
		f.share(t, other, task.AccessEdit)

		err := f.svc.Revoke(ctx, other, f.task.ID, grant.ID)

		assert.ErrorIs(t, err, task.ErrOwnerRequired)
		assert.Empty(t, f.events.events)
	})

	t.Run("non-member is denied before the grant is looked up", func(t *testing.T) {
		f := newAccessFixture(t)
		viewer, outsider := uuid.New(), uuid.New()
		grant := f.share(t, viewer, task.AccessView)
		f.access.On("FindByTaskAndUser", mock.Anything, f.task.ID, outsider).Return(nil, task.ErrAccessNotFound)

		err := f.svc.Revoke(ctx, outsider, f.task.ID, grant.ID)
		assert.ErrorIs(t, err, task.ErrAccessDenied)

		err = f.svc.Revoke(ctx, outsider, f.task.ID, uuid.New())
		assert.ErrorIs(t, err, task.ErrAccessDenied)

		f.access.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		assert.Empty(t, f.events.events)
	})

	t.Run("grant of another task", func(t *testing.T) {
		f := newAccessFixture(t)
		foreign, err := task.NewTaskAccess(uuid.New(), uuid.New(), task.AccessView)
		require.NoError(t, err)
		f.access.On("FindByID", mock.Anything, foreign.ID).Return(foreign, nil)

		err = f.svc.Revoke(ctx, f.owner, f.task.ID, foreign.ID)

		assert.ErrorIs(t, err, task.ErrAccessNotFound)
	})
}

func TestAccessService_UpdateLevel(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(t)
	editor := uuid.New()
	grant := f.share(t, editor, task.AccessEdit)
	f.access.On("Update", mock.Anything, grant).Return(nil)

	resp, err := f.svc.UpdateLevel(ctx, f.owner, f.task.ID, grant.ID, UpdateAccessRequest{AccessLevel: "VIEW"})

	require.NoError(t, err)
	assert.Equal(t, task.AccessView, resp.AccessLevel)
	changed := f.events.ofType(task.EventTypeAccessChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, task.AccessView, changed[0].(*task.AccessChangedEvent).Level)

	_, err = f.svc.UpdateLevel(ctx, editor, f.task.ID, grant.ID, UpdateAccessRequest{AccessLevel: "EDIT"})
	assert.Error(t, err)
}

func TestAccessService_SharedOwners(t *testing.T) {
	ctx := context.Background()
	f := newAccessFixture(t)
	caller := uuid.New()
	alice, err := identity.NewUser("alice", "alice@example.com", "Password123")
	require.NoError(t, err)
	f.access.On("FindSharedOwnerIDs", mock.Anything, caller).Return([]uuid.UUID{alice.ID}, nil)
	f.users.On("FindByIDs", mock.Anything, []uuid.UUID{alice.ID}).Return([]*identity.User{alice}, nil)

	got, err := f.svc.SharedOwners(ctx, caller)

	require.NoError(t, err)
	assert.Equal(t, []OwnerSummary{{ID: alice.ID, Username: "alice"}}, got)
}
