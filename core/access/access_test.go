package access

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	SendFunc func(to, subject, html string) notify.Result
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) notify.Result {
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(to, subject, html)
	}
	return notify.Result{Success: true, MessageID: "test"}
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

var (
	admin = &auth.Claims{Email: "root@room.io", Role: typesdb.RoleAdmin, Name: "Root"}
	ann   = &auth.Claims{Email: "ann@room.io", Role: typesdb.RoleUser, Name: "Ann"}
	bob   = &auth.Claims{Email: "bob@room.io", Role: typesdb.RoleUser, Name: "Bob"}
)

type fixture struct {
	svc    *Service
	db     *db.DB
	mailer *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := dbtest.Open(t)

	for _, u := range []struct{ email, name, role string }{
		{admin.Email, "Root", typesdb.RoleAdmin},
		{"ops@room.io", "Ops", typesdb.RoleAdmin},
		{ann.Email, "Ann", typesdb.RoleUser},
		{bob.Email, "Bob", typesdb.RoleUser},
	} {
		_, err := database.Exec(ctx, "INSERT INTO users (email, name, password_hash, role, created_at) VALUES ($1, $2, '', $3, $4)",
			u.email, u.name, u.role, time.Now().UTC())
		require.NoError(t, err)
	}
	_, err := database.Exec(ctx, `INSERT INTO files (id, folder_id, file_name, uploaded_by, uploaded_at)
		VALUES ('F1', 'D1', 'q3.pdf', $1, $2)`, admin.Email, time.Now().UTC())
	require.NoError(t, err)

	mailer := &fakeMailer{}
	svc := NewService(database, mailer, notify.NewNotifier(database, notify.NewHub()), activity.NewLogger(database))
	svc.dispatch = func(f func()) { f() }

	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &fixture{svc: svc, db: database, mailer: mailer}
}

func (f *fixture) request(t *testing.T, who *auth.Claims, itemID, itemType string, types ...string) string {
	t.Helper()
	res, err := f.svc.RequestAccess(context.Background(), who, RequestAccessRequest{
		ItemID: itemID, ItemType: itemType, ItemName: "q3.pdf", AccessTypes: types,
	})
	require.NoError(t, err)
	return res.RequestID
}

func (f *fixture) decide(t *testing.T, id, status string) {
	t.Helper()
	_, err := f.svc.UpdateAccessStatus(context.Background(), admin, id, status)
	require.NoError(t, err)
}

func (f *fixture) shares(t *testing.T, fileID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.QueryRow(context.Background(), "SELECT shares_count FROM files WHERE id = $1", fileID).Scan(&n))
	return n
}

func (f *fixture) check(t *testing.T, who *auth.Claims, itemID, itemType string) *CheckAccessResponse {
	t.Helper()
	res, err := f.svc.CheckUserAccess(context.Background(), who, itemID, itemType)
	require.NoError(t, err)
	return res
}

func TestRequestAccessValidation(t *testing.T) {
	f := newFixture(t)
	valid := RequestAccessRequest{ItemID: "F1", ItemType: "file", ItemName: "q3.pdf", AccessTypes: []string{"VIEW"}}

	tests := []struct {
		name   string
		caller *auth.Claims
		mutate func(r *RequestAccessRequest)
	}{
		{"no caller", nil, func(r *RequestAccessRequest) {}},
		{"no email", &auth.Claims{Role: "user"}, func(r *RequestAccessRequest) {}},
		{"no item id", ann, func(r *RequestAccessRequest) { r.ItemID = " " }},
		{"no item name", ann, func(r *RequestAccessRequest) { r.ItemName = "" }},
		{"no types", ann, func(r *RequestAccessRequest) { r.AccessTypes = nil }},
		{"unknown type", ann, func(r *RequestAccessRequest) { r.AccessTypes = []string{"VIEW", "DELETE"} }},
		{"unknown item type", ann, func(r *RequestAccessRequest) { r.ItemType = "drive" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := f.svc.RequestAccess(context.Background(), tt.caller, req)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))
		})
	}
}

func TestRequestAccessCreatesPendingAndMailsAdmins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.request(t, ann, "F1", "file", "download", "view", "VIEW")

	var status, types, email string
	require.NoError(t, f.db.QueryRow(ctx, "SELECT status, access_types, user_email FROM access_requests WHERE id = $1", id).
		Scan(&status, &types, &email))
	assert.Equal(t, typesdb.StatusPending, status)
	assert.Equal(t, "VIEW,DOWNLOAD", types)
	assert.Equal(t, ann.Email, email)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.ElementsMatch(t, []string{admin.Email, "ops@room.io"}, []string{sent[0].To, sent[1].To})
	assert.Equal(t, "Access Request: q3.pdf", sent[0].Subject)
	assert.Equal(t, "<p>ann@room.io requested VIEW, DOWNLOAD access to file: q3.pdf</p>", sent[0].HTML)
}

func TestListAccessRequestsIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	first := f.request(t, ann, "F1", "file", "VIEW")
	second := f.request(t, bob, "F1", "file", "DOWNLOAD")

	_, err := f.svc.ListAccessRequests(context.Background(), ann)
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	list, err := f.svc.ListAccessRequests(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID, "newest first")
	assert.Equal(t, first, list[1].ID)
}

func TestStatusTransitionsAreTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	approved := f.request(t, ann, "F1", "file", "VIEW")
	rejected := f.request(t, bob, "F1", "file", "VIEW")

	_, err := f.svc.UpdateAccessStatus(ctx, admin, approved, "maybe")
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	_, err = f.svc.UpdateAccessStatus(ctx, ann, approved, "approved")
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	_, err = f.svc.UpdateAccessStatus(ctx, admin, "missing", "approved")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	msg, err := f.svc.UpdateAccessStatus(ctx, admin, approved, "approved")
	require.NoError(t, err)
	assert.Equal(t, "Request approved", msg)
	f.decide(t, rejected, "rejected")

	for _, id := range []string{approved, rejected} {
		for _, status := range []string{"approved", "rejected"} {
			_, err := f.svc.UpdateAccessStatus(ctx, admin, id, status)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
			assert.Equal(t, 409, apperrors.HTTPStatus(err))
		}
	}

	var approvedBy string
	var approvedAt *time.Time
	require.NoError(t, f.db.QueryRow(ctx, "SELECT approved_by, approved_at FROM access_requests WHERE id = $1", approved).
		Scan(&approvedBy, &approvedAt))
	assert.Equal(t, admin.Email, approvedBy)
	assert.NotNil(t, approvedAt)

	assert.False(t, f.check(t, bob, "F1", "file").HasAccess, "rejection grants nothing")
	assert.Equal(t, int64(1), f.shares(t, "F1"), "only the approval counts")
}

func TestUnionAcrossApprovalsAndShareCountedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	empty := f.check(t, ann, "F1", "file")
	assert.False(t, empty.HasAccess)
	assert.Equal(t, []string{}, empty.AccessTypes)

	f.decide(t, f.request(t, ann, "F1", "file", "VIEW"), "approved")
	assert.Equal(t, &CheckAccessResponse{HasAccess: true, AccessTypes: []string{"VIEW"}}, f.check(t, ann, "F1", "file"))
	assert.Equal(t, int64(1), f.shares(t, "F1"))

	f.decide(t, f.request(t, ann, "F1", "file", "DOWNLOAD"), "approved")
	assert.Equal(t, []string{"VIEW", "DOWNLOAD"}, f.check(t, ann, "F1", "file").AccessTypes)
	assert.Equal(t, int64(1), f.shares(t, "F1"), "second approval for the same user is not a new share")

	f.decide(t, f.request(t, bob, "F1", "file", "VIEW"), "approved")
	assert.Equal(t, int64(2), f.shares(t, "F1"))

	assert.False(t, f.check(t, ann, "F1", "folder").HasAccess, "item type is part of the key")

	var titles []string
	rows, err := f.db.Query(ctx, "notifications", "SELECT title FROM notifications WHERE user_email = $1 ORDER BY created_at", ann.Email)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var title string
		require.NoError(t, rows.Scan(&title))
		titles = append(titles, title)
	}
	assert.Equal(t, []string{"Access Approved: q3.pdf", "Access Approved: q3.pdf"}, titles)
}

func TestFolderApprovalDoesNotTouchShares(t *testing.T) {
	f := newFixture(t)
	f.decide(t, f.request(t, ann, "F1", "folder", "UPLOAD"), "approved")
	assert.Zero(t, f.shares(t, "F1"))
	assert.Equal(t, []string{"UPLOAD"}, f.check(t, ann, "F1", "folder").AccessTypes)
}

func TestAdminHasEverything(t *testing.T) {
	f := newFixture(t)
	res := f.check(t, admin, "anything", "folder")
	assert.True(t, res.HasAccess)
	assert.Equal(t, []string{"VIEW", "DOWNLOAD", "COMMENT", "UPLOAD"}, res.AccessTypes)
}

func TestRevokeSpecificAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.request(t, ann, "F1", "file", "VIEW", "DOWNLOAD")
	f.decide(t, id, "approved")

	_, err := f.svc.RevokeSpecificAccess(ctx, ann, id, "VIEW")
	assert.Equal(t, 403, apperrors.HTTPStatus(err))
	_, err = f.svc.RevokeSpecificAccess(ctx, admin, id, "DELETE")
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	_, err = f.svc.RevokeSpecificAccess(ctx, admin, "missing", "VIEW")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	msg, err := f.svc.RevokeSpecificAccess(ctx, admin, id, "view")
	require.NoError(t, err)
	assert.Equal(t, "VIEW access revoked successfully", msg)
	assert.Equal(t, []string{"DOWNLOAD"}, f.check(t, ann, "F1", "file").AccessTypes)

	sent := f.mailer.Sent()
	last := sent[len(sent)-1]
	assert.Equal(t, ann.Email, last.To)
	assert.Equal(t, "Access Revoked: q3.pdf", last.Subject)
	assert.Contains(t, last.HTML, "Your VIEW access to q3.pdf has been revoked.")

	_, err = f.svc.RevokeSpecificAccess(ctx, admin, id, "DOWNLOAD")
	require.NoError(t, err)

	var n int64
	require.NoError(t, f.db.QueryRow(ctx, "SELECT COUNT(*) FROM access_requests WHERE id = $1", id).Scan(&n))
	assert.Zero(t, n, "request with no types left is deleted")
	assert.False(t, f.check(t, ann, "F1", "file").HasAccess)

	users, err := f.svc.GetItemUsers(ctx, "F1", "file")
	require.NoError(t, err)
	for _, u := range users {
		assert.NotEqual(t, ann.Email, u.UserEmail)
	}
}

func TestRevokeAllAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.request(t, ann, "F1", "file", "VIEW", "COMMENT")
	f.decide(t, id, "approved")

	_, err := f.svc.RevokeAllAccess(ctx, bob, id)
	assert.Equal(t, 403, apperrors.HTTPStatus(err))

	msg, err := f.svc.RevokeAllAccess(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, "All access revoked successfully", msg)
	assert.False(t, f.check(t, ann, "F1", "file").HasAccess)

	_, err = f.svc.RevokeAllAccess(ctx, admin, id)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestGetItemUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.decide(t, f.request(t, ann, "F1", "file", "VIEW"), "approved")
	f.decide(t, f.request(t, ann, "F1", "file", "COMMENT"), "approved")
	f.decide(t, f.request(t, admin, "F1", "file", "VIEW"), "approved")
	f.request(t, bob, "F1", "file", "VIEW")

	_, err := f.svc.GetItemUsers(ctx, "", "file")
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	users, err := f.svc.GetItemUsers(ctx, "F1", "file")
	require.NoError(t, err)
	require.Len(t, users, 3, "two admins plus ann; bob is still pending")

	byEmail := map[string]ItemUser{}
	for _, u := range users {
		byEmail[u.UserEmail] = u
	}
	assert.True(t, byEmail[admin.Email].IsAdmin)
	assert.Equal(t, AllTypes(), byEmail[admin.Email].AccessTypes)
	assert.True(t, byEmail["ops@room.io"].IsAdmin)
	assert.False(t, byEmail[ann.Email].IsAdmin)
	assert.Equal(t, []string{"VIEW", "COMMENT"}, byEmail[ann.Email].AccessTypes)
	assert.True(t, users[0].IsAdmin && users[1].IsAdmin, "admins are listed first")
}

func TestGetItemUsersWithoutAdminLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.decide(t, f.request(t, ann, "F1", "file", "VIEW"), "approved")

	_, err := f.db.Exec(ctx, "DROP TABLE users")
	require.NoError(t, err)

	users, err := f.svc.GetItemUsers(ctx, "F1", "file")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ann.Email, users[0].UserEmail)
	assert.False(t, users[0].IsAdmin)
}

func TestDeliveryFailuresDoNotFailDecisions(t *testing.T) {
	f := newFixture(t)
	f.mailer.SendFunc = func(string, string, string) notify.Result {
		return notify.Result{Success: false, Error: "relay down"}
	}
	id := f.request(t, ann, "F1", "file", "VIEW")
	f.decide(t, id, "approved")
	assert.True(t, f.check(t, ann, "F1", "file").HasAccess)

	// no notifier at all
	f.svc.notifier = nil
	f.decide(t, f.request(t, bob, "F1", "file", "VIEW"), "rejected")
}

func TestActivityIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.request(t, ann, "F1", "file", "VIEW")
	f.decide(t, id, "approved")
	_, err := f.svc.RevokeAllAccess(auth.WithClaims(ctx, admin), admin, id)
	require.NoError(t, err)

	logs, err := activity.NewLogger(f.db).ForResource(ctx, "F1", 10)
	require.NoError(t, err)
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{"request_access", "access_approved", "revoke_access_all"}, actions)
}

func TestNormalizeAndUnion(t *testing.T) {
	types, err := NormalizeTypes([]string{" upload", "VIEW", "view"})
	require.NoError(t, err)
	assert.Equal(t, []string{"VIEW", "UPLOAD"}, types)

	_, err = NormalizeTypes([]string{})
	assert.Error(t, err)

	assert.Equal(t, []string{"VIEW", "DOWNLOAD", "COMMENT"}, Union("COMMENT,VIEW", "DOWNLOAD, VIEW", "", "BOGUS"))
	assert.Equal(t, []string{}, Union())
}
