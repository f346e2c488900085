package notifications

import (
	"context"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

func callerEmail(caller *auth.Claims) (string, error) {
	if caller == nil || caller.Email == "" {
		return "", apperrors.Invalid("User email missing in token")
	}
	return caller.Email, nil
}

// List returns the caller's notifications, newest first
func List(ctx context.Context, database *db.DB, caller *auth.Claims) ([]typesdb.Notification, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}

	rows, err := database.Query(ctx, tables.Notifications,
		"SELECT id, user_email, title, body, is_read, created_at FROM "+tables.Notifications+
			" WHERE user_email = $1 ORDER BY created_at DESC, id DESC", email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	out := []typesdb.Notification{}
	for rows.Next() {
		var n typesdb.Notification
		if err := rows.Scan(&n.ID, &n.UserEmail, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

// MarkRead flags one of the caller's notifications as read. Ids that are
// unknown or belong to someone else are ignored.
func MarkRead(ctx context.Context, database *db.DB, caller *auth.Claims, id string) (string, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return "", err
	}
	_, err = database.Exec(ctx,
		"UPDATE "+tables.Notifications+" SET is_read = TRUE WHERE id = $1 AND user_email = $2", id, email)
	if err != nil {
		return "", apperrors.Database(err)
	}
	return "Marked read", nil
}

// Delete removes one of the caller's notifications.
func Delete(ctx context.Context, database *db.DB, caller *auth.Claims, id string) (string, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return "", err
	}
	_, err = database.Exec(ctx,
		"DELETE FROM "+tables.Notifications+" WHERE id = $1 AND user_email = $2", id, email)
	if err != nil {
		return "", apperrors.Database(err)
	}
	return "Notification deleted", nil
}

// ClearAll removes every notification of the caller.
func ClearAll(ctx context.Context, database *db.DB, caller *auth.Claims) (string, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return "", err
	}
	if _, err := database.Exec(ctx, "DELETE FROM "+tables.Notifications+" WHERE user_email = $1", email); err != nil {
		return "", apperrors.Database(err)
	}
	return "All notifications cleared", nil
}
