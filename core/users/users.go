package users

import (
	"context"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// UserSummary is a user as listed to admins.
type UserSummary struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// List returns users newest first, optionally restricted to one role.
func (s *Service) List(ctx context.Context, role string) ([]UserSummary, error) {
	query := "SELECT name, email, role, created_at FROM " + tables.Users
	var args []any
	if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
		query += " WHERE LOWER(role) = $1"
		args = append(args, role)
	}
	query += " ORDER BY created_at DESC, email"

	rows, err := s.db.Query(ctx, tables.Users, query, args...)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	out := []UserSummary{}
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

// Update changes the name and/or role of a user.
func (s *Service) Update(ctx context.Context, email string, req UpdateUserRequest) (string, error) {
	email = normalizeEmail(email)
	user, err := s.load(ctx, email)
	if err != nil {
		return "", err
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		if *req.Role != typesdb.RoleAdmin && *req.Role != typesdb.RoleUser {
			return "", apperrors.Invalid("Invalid role %q", *req.Role)
		}
		user.Role = *req.Role
	}

	_, err = s.db.Exec(ctx, "UPDATE "+tables.Users+" SET name = $1, role = $2 WHERE email = $3",
		user.Name, user.Role, email)
	if err != nil {
		return "", apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "update_user",
		Description:  "Updated user " + email,
		ResourceID:   email,
		ResourceType: "user",
	})
	return "User updated successfully", nil
}

func (s *Service) Delete(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	res, err := s.db.Exec(ctx, "DELETE FROM "+tables.Users+" WHERE email = $1", email)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", apperrors.NotFound("User not found")
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "delete_user",
		Description:  "Deleted user " + email,
		ResourceID:   email,
		ResourceType: "user",
	})
	return "User deleted successfully", nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, caller *auth.Claims) (*UserSummary, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	u, err := s.load(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	return &UserSummary{Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}, nil
}
