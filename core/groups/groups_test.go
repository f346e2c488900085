package groups

import (
	"context"
	"sync"
	"testing"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/notifications"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu       sync.Mutex
	subjects map[string][]string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) notify.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subjects == nil {
		m.subjects = map[string][]string{}
	}
	m.subjects[to] = append(m.subjects[to], subject)
	if to == "bounce@room.io" {
		return notify.Result{Success: false, Error: "mailbox full"}
	}
	return notify.Result{Success: true}
}

var (
	admin = &auth.Claims{Email: "root@room.io", Role: typesdb.RoleAdmin, Name: "Root"}
	ann   = &auth.Claims{Email: "ann@room.io", Role: typesdb.RoleUser}
)

func newService(t *testing.T) (*Service, *db.DB, *fakeMailer) {
	t.Helper()
	database := dbtest.Open(t)
	mailer := &fakeMailer{}
	svc := NewService(database, mailer, notify.NewNotifier(database, notify.NewHub()))
	svc.dispatch = func(f func()) { f() }
	return svc, database, mailer
}

func TestParseMembers(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"[]", []string{}},
		{"null", []string{}},
		{`["a@x.io","b@x.io"]`, []string{"a@x.io", "b@x.io"}},
		{"a@x.io, b@x.io,,", []string{"a@x.io", "b@x.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMembers(tt.raw))
		})
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ann, CreateGroupRequest{GroupName: "Legal", Users: []string{"a@x.io"}})
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	_, err = svc.Create(ctx, admin, CreateGroupRequest{GroupName: "  ", Users: []string{"a@x.io"}})
	require.Error(t, err)
	assert.Equal(t, "Group name is required", err.Error())

	_, err = svc.Create(ctx, admin, CreateGroupRequest{GroupName: "Legal", Users: []string{" "}})
	require.Error(t, err)
	assert.Equal(t, "At least one member email is required", err.Error())
}

func TestGroupLifecycle(t *testing.T) {
	svc, database, mailer := newService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, admin, CreateGroupRequest{
		GroupName: "Legal",
		Users:     []string{ann.Email, "bounce@room.io"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Group created successfully. Users will be notified (in-app).", res.Message)
	assert.Equal(t, "Legal", res.GroupName)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{ann.Email, "bounce@room.io"}, list[0].Members)
	assert.Equal(t, "Root", list[0].CreatedBy)

	inbox, err := notifications.List(ctx, database, ann)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Added to Group: Legal", inbox[0].Title)
	assert.Equal(t, "You have been added to group Legal by Root.", inbox[0].Body)
	assert.Equal(t, []string{"Added to Group: Legal"}, mailer.subjects[ann.Email])

	msg, err := svc.Delete(ctx, ann, res.ID)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	assert.Empty(t, msg)

	msg, err = svc.Delete(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Group deleted successfully", msg)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	inbox, err = notifications.List(ctx, database, ann)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "Removed from Group: Legal", inbox[0].Title)
	assert.Equal(t, []string{"Added to Group: Legal", "Removed from Group: Legal"}, mailer.subjects["bounce@room.io"])

	// unknown ids are a no-op
	msg, err = svc.Delete(ctx, admin, "missing")
	require.NoError(t, err)
	assert.Equal(t, "Group deleted successfully", msg)
}

func TestListReadsLegacyMembers(t *testing.T) {
	svc, database, _ := newService(t)
	ctx := context.Background()
	_, err := database.Exec(ctx, `INSERT INTO user_groups (id, group_name, members, created_by, created_at)
		VALUES ('G1', 'Ops', 'a@x.io, b@x.io', 'Root', TIMESTAMP '2024-01-01 00:00:00')`)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, list[0].Members)
}
