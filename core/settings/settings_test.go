package settings

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ann = &auth.Claims{Email: "ann@room.io", Role: typesdb.RoleUser, Name: "Ann Marie Lee"}

func newService(t *testing.T) (*Service, *db.DB, *blob.MemoryStore) {
	t.Helper()
	database := dbtest.Open(t)
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	for _, u := range []struct{ email, name string }{{ann.Email, ann.Name}, {"bob@room.io", "Bob"}} {
		_, err = database.Exec(context.Background(),
			"INSERT INTO users (email, name, password_hash, role, created_at) VALUES ($1, $2, $3, 'user', $4)",
			u.email, u.name, hash, time.Now().UTC())
		require.NoError(t, err)
	}
	store := blob.NewMemoryStore()
	svc := NewService(database, store)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, database, store
}

func TestProfile(t *testing.T) {
	svc, database, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Profile(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.FirstName)
	assert.Equal(t, "Marie Lee", p.LastName)
	assert.Equal(t, int64(DefaultSpaceMB), p.AvailableSpaceMB)
	assert.Nil(t, p.LogoURL)
	assert.Nil(t, p.ExpiryDate)

	_, err = svc.UpdateProfile(ctx, ann, UpdateProfileRequest{ExpiryDate: "next year"})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	msg, err := svc.UpdateProfile(ctx, ann, UpdateProfileRequest{
		CompanyName: "Acme",
		FirstName:   "Annie",
		LastName:    "Lee",
		ContactNo:   "555-0100",
		ExpiryDate:  "2025-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully", msg)

	p, err = svc.Profile(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "Annie", p.FirstName)
	assert.Equal(t, "555-0100", p.ContactNo)
	require.NotNil(t, p.ExpiryDate)
	assert.Equal(t, "2025-12-31", *p.ExpiryDate)

	var name string
	require.NoError(t, database.QueryRow(ctx, "SELECT name FROM users WHERE email = $1", ann.Email).Scan(&name))
	assert.Equal(t, "Annie Lee", name)

	// a second update replaces the row
	_, err = svc.UpdateProfile(ctx, ann, UpdateProfileRequest{CompanyName: "Acme 2"})
	require.NoError(t, err)
	p, err = svc.Profile(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "Acme 2", p.CompanyName)
	assert.Nil(t, p.ExpiryDate)
	assert.Equal(t, "Annie", p.FirstName, "falls back to the user name")

	_, err = svc.Profile(ctx, &auth.Claims{Email: "ghost@room.io"})
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
	_, err = svc.Profile(ctx, nil)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

func TestUploadLogo(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	_, err := svc.UploadLogo(ctx, ann, "", "", 0, nil)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	res, err := svc.UploadLogo(ctx, ann, "logo.png", "", 4, strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "Logo uploaded successfully", res.Message)

	key := "logos/ann@room.io/1714564800000_logo.png"
	assert.True(t, store.Has(key))
	obj, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/png", obj.ContentType)

	p, err := svc.Profile(ctx, ann)
	require.NoError(t, err)
	require.NotNil(t, p.LogoURL)
	assert.Equal(t, res.LogoURL, *p.LogoURL)
}

func TestChangePassword(t *testing.T) {
	svc, database, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  ChangePasswordRequest
		want string
	}{
		{"missing", ChangePasswordRequest{NewPassword: "x"}, "All password fields are required"},
		{"mismatch", ChangePasswordRequest{CurrentPassword: "hunter22", NewPassword: "abcdef", ConfirmPassword: "abcdeg"}, "New password and confirm password do not match"},
		{"short", ChangePasswordRequest{CurrentPassword: "hunter22", NewPassword: "abc", ConfirmPassword: "abc"}, "New password must be at least 6 characters"},
		{"wrong current", ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "abcdef", ConfirmPassword: "abcdef"}, "Current password is incorrect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChangePassword(ctx, ann, tt.req)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.HTTPStatus(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}

	msg, err := svc.ChangePassword(ctx, ann, ChangePasswordRequest{CurrentPassword: "hunter22", NewPassword: "abcdef", ConfirmPassword: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "Password updated successfully", msg)

	var hash string
	require.NoError(t, database.QueryRow(ctx, "SELECT password_hash FROM users WHERE email = $1", ann.Email).Scan(&hash))
	assert.True(t, auth.CheckPassword(hash, "abcdef"))
}

func TestChangeEmail(t *testing.T) {
	svc, database, _ := newService(t)
	ctx := context.Background()
	_, err := svc.UpdateProfile(ctx, ann, UpdateProfileRequest{CompanyName: "Acme"})
	require.NoError(t, err)

	_, err = svc.ChangeEmail(ctx, ann, " ")
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	_, err = svc.ChangeEmail(ctx, ann, "BOB@room.io")
	assert.Equal(t, 409, apperrors.HTTPStatus(err))

	res, err := svc.ChangeEmail(ctx, ann, "Ann.Lee@Room.io")
	require.NoError(t, err)
	assert.Equal(t, "Email updated successfully", res.Message)
	assert.Equal(t, "ann.lee@room.io", res.NewEmail)

	var n int64
	require.NoError(t, database.QueryRow(ctx, "SELECT CAST(COUNT(*) AS BIGINT) FROM users WHERE email = $1", ann.Email).Scan(&n))
	assert.Zero(t, n)

	p, err := svc.Profile(ctx, &auth.Claims{Email: "ann.lee@room.io"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "Ann", p.FirstName)

	_, err = svc.ChangeEmail(ctx, ann, "someone@room.io")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestTags(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, ann, TagRequest{Name: " "})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	legal, err := svc.CreateTag(ctx, ann, TagRequest{Name: "Legal"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTagColor, legal.Color)
	_, err = svc.CreateTag(ctx, ann, TagRequest{Name: "legal"})
	assert.Equal(t, 409, apperrors.HTTPStatus(err))

	hr, err := svc.CreateTag(ctx, ann, TagRequest{Name: "HR", Color: "#ff0000"})
	require.NoError(t, err)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	_, err = svc.UpdateTag(ctx, hr.ID, TagRequest{Name: "LEGAL"})
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
	msg, err := svc.UpdateTag(ctx, hr.ID, TagRequest{Name: "People", Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "Tag updated successfully", msg)
	_, err = svc.UpdateTag(ctx, legal.ID, TagRequest{Name: "Legal", Color: "#000000"})
	require.NoError(t, err, "keeping its own name is allowed")
	_, err = svc.UpdateTag(ctx, "missing", TagRequest{Name: "X"})
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	msg, err = svc.DeleteTag(ctx, legal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tag deleted successfully", msg)

	tags, err = svc.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "People", tags[0].Name)
	assert.Equal(t, "#00ff00", tags[0].Color)
	assert.Equal(t, ann.Email, tags[0].CreatedBy)
}
