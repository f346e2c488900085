package notify

import (
	"context"
	"time"

	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// Notifier creates in-app notification rows and pushes them to the hub.
type Notifier struct {
	db  *db.DB
	hub *Hub
	now func() time.Time
}

func NewNotifier(database *db.DB, hub *Hub) *Notifier {
	return &Notifier{db: database, hub: hub, now: time.Now}
}

func (n *Notifier) Create(ctx context.Context, email, title, body string) (*typesdb.Notification, error) {
	note := typesdb.Notification{
		ID:        ids.NewULID(),
		UserEmail: email,
		Title:     title,
		Body:      body,
		CreatedAt: n.now().UTC(),
	}
	_, err := n.db.Exec(ctx,
		"INSERT INTO "+tables.Notifications+" (id, user_email, title, body, is_read, created_at) VALUES ($1, $2, $3, $4, FALSE, $5)",
		note.ID, note.UserEmail, note.Title, note.Body, note.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if n.hub != nil {
		n.hub.Publish(note)
	}
	return &note, nil
}
