// Package settings serves the account settings screens: profile details,
// company logo, password and email changes, and the shared tag list.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// DefaultSpaceMB is the storage allowance of a profile that never set one.
const DefaultSpaceMB = 2048

const dateLayout = "2006-01-02"

type Service struct {
	db    *db.DB
	store blob.Store
	now   func() time.Time
}

func NewService(database *db.DB, store blob.Store) *Service {
	return &Service{db: database, store: store, now: time.Now}
}

type ProfileResponse struct {
	Email            string  `json:"email"`
	CompanyName      string  `json:"companyName"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Address          string  `json:"address"`
	ContactNo        string  `json:"contactNo"`
	ExpiryDate       *string `json:"expiryDate"`
	LogoURL          *string `json:"logoUrl"`
	AvailableSpaceMB int64   `json:"availableSpaceMB"`
	Role             string  `json:"role"`
}

// UpdateProfileRequest replaces every profile field. ExpiryDate is
// YYYY-MM-DD or empty.
type UpdateProfileRequest struct {
	CompanyName string `json:"companyName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address     string `json:"address"`
	ContactNo   string `json:"contactNo"`
	ExpiryDate  string `json:"expiryDate"`
}

type LogoResponse struct {
	Message string `json:"message"`
	LogoURL string `json:"logoUrl"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangeEmailResponse struct {
	Message  string `json:"message"`
	NewEmail string `json:"newEmail"`
}

func callerEmail(caller *auth.Claims) (string, error) {
	if caller == nil || caller.Email == "" {
		return "", apperrors.Unauthorized("Unauthorized")
	}
	return caller.Email, nil
}

func loadUser(ctx context.Context, database *db.DB, email string) (*typesdb.User, error) {
	var u typesdb.User
	err := database.QueryRow(ctx,
		"SELECT email, name, password_hash, role, created_at FROM "+tables.Users+" WHERE email = $1", email,
	).Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &u, nil
}

// Profile merges the user row with the optional profile row. Names missing
// from the profile fall back to the user's display name.
func (s *Service) Profile(ctx context.Context, caller *auth.Claims) (*ProfileResponse, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}
	user, err := loadUser(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	var p typesdb.Profile
	err = s.db.QueryRow(ctx, `
		SELECT company_name, first_name, last_name, address, contact_no, expiry_date, logo_url, available_space_mb
		FROM `+tables.Profiles+` WHERE user_email = $1`, email,
	).Scan(&p.CompanyName, &p.FirstName, &p.LastName, &p.Address, &p.ContactNo, &p.ExpiryDate, &p.LogoURL, &p.AvailableSpaceMB)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Database(err)
	}

	first, last, _ := strings.Cut(strings.TrimSpace(user.Name), " ")
	if p.FirstName != "" {
		first = p.FirstName
	}
	if p.LastName != "" {
		last = p.LastName
	}
	res := &ProfileResponse{
		Email:            user.Email,
		CompanyName:      p.CompanyName,
		FirstName:        first,
		LastName:         strings.TrimSpace(last),
		Address:          p.Address,
		ContactNo:        p.ContactNo,
		AvailableSpaceMB: p.AvailableSpaceMB,
		Role:             user.Role,
	}
	if res.AvailableSpaceMB == 0 {
		res.AvailableSpaceMB = DefaultSpaceMB
	}
	if p.ExpiryDate != nil {
		d := p.ExpiryDate.Format(dateLayout)
		res.ExpiryDate = &d
	}
	if p.LogoURL != "" {
		res.LogoURL = &p.LogoURL
	}
	return res, nil
}

// UpdateProfile upserts the profile row and keeps the user's display name
// in step with the first and last name.
func (s *Service) UpdateProfile(ctx context.Context, caller *auth.Claims, req UpdateProfileRequest) (string, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return "", err
	}
	var expiry *time.Time
	if d := strings.TrimSpace(req.ExpiryDate); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return "", apperrors.Invalid("Invalid expiryDate %q", d)
		}
		expiry = &t
	}

	err = s.db.InTx(ctx, func(tx *db.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO `+tables.Profiles+` (user_email, company_name, first_name, last_name, address, contact_no, expiry_date, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_email) DO UPDATE SET
				company_name = EXCLUDED.company_name,
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				address = EXCLUDED.address,
				contact_no = EXCLUDED.contact_no,
				expiry_date = EXCLUDED.expiry_date,
				updated_at = EXCLUDED.updated_at`,
			email, req.CompanyName, req.FirstName, req.LastName, req.Address, req.ContactNo, expiry, s.now().UTC())
		if err != nil {
			return err
		}
		if full := strings.TrimSpace(req.FirstName + " " + req.LastName); full != "" {
			if _, err := tx.Exec("UPDATE "+tables.Users+" SET name = $1 WHERE email = $2", full, email); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "update_profile",
		Description:  "Updated profile details",
		ResourceID:   email,
		ResourceType: "user",
	})
	return "Profile updated successfully", nil
}

// UploadLogo stores the image under logos/<email>/ and points the profile
// at it.
func (s *Service) UploadLogo(ctx context.Context, caller *auth.Claims, name, contentType string, size int64, body io.Reader) (*LogoResponse, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}
	if body == nil || strings.TrimSpace(name) == "" {
		return nil, apperrors.Invalid("No file uploaded")
	}
	if contentType == "" {
		contentType = blob.ContentType(name)
	}

	now := s.now().UTC()
	key := blob.Key("logos/"+email, fmt.Sprintf("%d_%s", now.UnixMilli(), name))
	url, err := s.store.Put(ctx, key, body, size, contentType)
	if err != nil {
		return nil, apperrors.Upstream("Failed to upload logo", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.Profiles+` (user_email, logo_url, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_email) DO UPDATE SET logo_url = EXCLUDED.logo_url, updated_at = EXCLUDED.updated_at`,
		email, url, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "upload_logo",
		Description:  "Updated profile logo",
		ResourceID:   email,
		ResourceType: "user",
	})
	return &LogoResponse{Message: "Logo uploaded successfully", LogoURL: url}, nil
}

// ChangePassword requires the current password.
func (s *Service) ChangePassword(ctx context.Context, caller *auth.Claims, req ChangePasswordRequest) (string, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return "", err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return "", apperrors.Invalid("All password fields are required")
	}
	if req.NewPassword != req.ConfirmPassword {
		return "", apperrors.Invalid("New password and confirm password do not match")
	}
	if len(req.NewPassword) < 6 {
		return "", apperrors.Invalid("New password must be at least 6 characters")
	}

	user, err := loadUser(ctx, s.db, email)
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return "", apperrors.Invalid("Current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(ctx, "UPDATE "+tables.Users+" SET password_hash = $1 WHERE email = $2", hash, email); err != nil {
		return "", apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "reset_password",
		Description:  "Password updated",
		ResourceID:   email,
		ResourceType: "user",
	})
	return "Password updated successfully", nil
}

// ChangeEmail moves the caller's user and profile rows to a new address.
// Tokens already issued keep the old address until they expire.
func (s *Service) ChangeEmail(ctx context.Context, caller *auth.Claims, newEmail string) (*ChangeEmailResponse, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == "" {
		return nil, apperrors.Invalid("New email is required")
	}

	err = s.db.InTx(ctx, func(tx *db.Tx) error {
		var n int64
		if err := tx.QueryRow("SELECT CAST(COUNT(*) AS BIGINT) FROM "+tables.Users+" WHERE email = $1", newEmail).Scan(&n); err != nil {
			return apperrors.Database(err)
		}
		if n > 0 {
			return apperrors.Duplicate("Email already in use")
		}

		// key columns are copied to a new row rather than updated in place
		res, err := tx.Exec(`
			INSERT INTO `+tables.Users+` (email, name, password_hash, role, created_at)
			SELECT CAST($1 AS VARCHAR), name, password_hash, role, created_at FROM `+tables.Users+` WHERE email = $2`,
			newEmail, email)
		if err != nil {
			return apperrors.Database(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("User not found")
		}
		if _, err := tx.Exec("DELETE FROM "+tables.Users+" WHERE email = $1", email); err != nil {
			return apperrors.Database(err)
		}

		_, err = tx.Exec(`
			INSERT INTO `+tables.Profiles+` (user_email, company_name, first_name, last_name, address, contact_no,
				expiry_date, logo_url, available_space_mb, updated_at)
			SELECT CAST($1 AS VARCHAR), company_name, first_name, last_name, address, contact_no,
				expiry_date, logo_url, available_space_mb, CAST($2 AS TIMESTAMP)
			FROM `+tables.Profiles+` WHERE user_email = $3`,
			newEmail, s.now().UTC(), email)
		if err != nil {
			return apperrors.Database(err)
		}
		if _, err := tx.Exec("DELETE FROM "+tables.Profiles+" WHERE user_email = $1", email); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "change_email",
		Description:  "Changed email to " + newEmail,
		ResourceID:   newEmail,
		ResourceType: "user",
	})
	return &ChangeEmailResponse{Message: "Email updated successfully", NewEmail: newEmail}, nil
}
