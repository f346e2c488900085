// Package access implements the access-request workflow: users ask for
// capabilities on a file or folder, admins approve, reject or revoke them,
// and effective access is the union of a user's approved requests.
package access

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// Notifier creates in-app notifications.
type Notifier interface {
	Create(ctx context.Context, email, title, body string) (*typesdb.Notification, error)
}

type Service struct {
	db       *db.DB
	mailer   notify.Mailer
	notifier Notifier
	audit    *activity.Logger
	now      func() time.Time

	// dispatch runs best-effort side effects off the request path
	dispatch func(func())

	// decisions serialises approvals so the first-approval check and the
	// share counter increment cannot interleave
	decisions sync.Mutex
}

func NewService(database *db.DB, mailer notify.Mailer, notifier Notifier, audit *activity.Logger) *Service {
	return &Service{
		db:       database,
		mailer:   mailer,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

const requestColumns = `id, user_email, item_id, item_type, item_name, access_types,
	status, requested_at, approved_at, approved_by`

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*typesdb.AccessRequest, error) {
	var req typesdb.AccessRequest
	err := row.Scan(&req.ID, &req.UserEmail, &req.ItemID, &req.ItemType, &req.ItemName,
		&req.AccessTypes, &req.Status, &req.RequestedAt, &req.ApprovedAt, &req.ApprovedBy)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// loadRequest fetches one request inside tx, mapping absence to NotFound.
func loadRequest(tx *db.Tx, id string) (*typesdb.AccessRequest, error) {
	req, err := scanRequest(tx.QueryRow(
		"SELECT "+requestColumns+" FROM "+tables.AccessRequests+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Request not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return req, nil
}

func (s *Service) adminEmails(ctx context.Context) []string {
	rows, err := s.db.Query(ctx, tables.Users,
		"SELECT email FROM "+tables.Users+" WHERE role = $1 ORDER BY email LIMIT 10", typesdb.RoleAdmin)
	if err != nil {
		log.Printf("⚠️  Could not load admin emails: %v", err)
		return nil
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			log.Printf("⚠️  Could not read admin email: %v", err)
			return emails
		}
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// sendMail renders tpl and mails it without blocking the caller.
func (s *Service) sendMail(to, subject, tpl string, data map[string]any) {
	if s.mailer == nil {
		return
	}
	html, err := notify.Render(tpl, data)
	if err != nil {
		log.Printf("❌ Could not render %s email: %v", tpl, err)
		return
	}
	s.dispatch(func() {
		if res := s.mailer.Send(context.Background(), to, subject, html); !res.Success {
			log.Printf("⚠️  Failed to email %s (%q): %s", to, subject, res.Error)
		}
	})
}
