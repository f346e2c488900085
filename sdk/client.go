// Package sdk embeds the access-request workflow in another Go program. The
// client opens the DataRoom database directly, without the HTTP server.
package sdk

import (
	"context"
	"fmt"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/config"
	"github.com/Voltaic314/DataRoom/core/access"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// DataRoomClient runs access workflow operations as a fixed identity.
type DataRoomClient struct {
	database *db.DB
	access   *access.Service
	owned    bool
}

// NewDataRoomClient loads the config at configPath, connects, applies
// pending migrations and sets up the activity log queue.
func NewDataRoomClient(ctx context.Context, configPath string) (*DataRoomClient, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Open(ctx, db.Config{
		DSN:              cfg.Database.DSN,
		MaxAttempts:      cfg.Database.MaxAttempts,
		RetryDelay:       cfg.Database.RetryDelay.Std(),
		StatementTimeout: cfg.Database.StatementTimeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, tables.Migrations()); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	database.InitWriteQueue(tables.UserLogs, cfg.Database.LogBatchSize, cfg.Database.LogFlushInterval.Std())

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	c := NewDataRoomClientWithDB(database, mailer)
	c.owned = true
	return c, nil
}

// NewDataRoomClientWithDB wraps an already migrated database. Close leaves
// it open.
func NewDataRoomClientWithDB(database *db.DB, mailer notify.Mailer) *DataRoomClient {
	notifier := notify.NewNotifier(database, notify.NewHub())
	return &DataRoomClient{
		database: database,
		access:   access.NewService(database, mailer, notifier, activity.NewLogger(database)),
	}
}

// Close flushes queued log rows and closes the database if the client
// opened it.
func (c *DataRoomClient) Close() error {
	if c.database == nil {
		return nil
	}
	if c.owned {
		c.database.Close()
		return nil
	}
	c.database.ForceFlushTable(tables.UserLogs)
	return nil
}

// As returns a session acting as the given user.
func (c *DataRoomClient) As(email, role, name string) *Session {
	return &Session{client: c, caller: &auth.Claims{Email: email, Role: role, Name: name}}
}

// Session is a DataRoomClient bound to one caller.
type Session struct {
	client *DataRoomClient
	caller *auth.Claims
}

// RequestAccess files a pending request and returns its id.
func (s *Session) RequestAccess(ctx context.Context, itemID, itemType, itemName string, accessTypes ...string) (string, error) {
	res, err := s.client.access.RequestAccess(ctx, s.caller, access.RequestAccessRequest{
		ItemID:      itemID,
		ItemType:    itemType,
		ItemName:    itemName,
		AccessTypes: accessTypes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to request access: %w", err)
	}
	return res.RequestID, nil
}

// Requests lists access requests. Admin sessions only.
func (s *Session) Requests(ctx context.Context) ([]typesdb.AccessRequest, error) {
	list, err := s.client.access.ListAccessRequests(ctx, s.caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return list, nil
}

// Approve approves a pending request.
func (s *Session) Approve(ctx context.Context, requestID string) error {
	return s.decide(ctx, requestID, typesdb.StatusApproved)
}

// Reject rejects a pending request.
func (s *Session) Reject(ctx context.Context, requestID string) error {
	return s.decide(ctx, requestID, typesdb.StatusRejected)
}

func (s *Session) decide(ctx context.Context, requestID, status string) error {
	if _, err := s.client.access.UpdateAccessStatus(ctx, s.caller, requestID, status); err != nil {
		return fmt.Errorf("failed to mark request %s %s: %w", requestID, status, err)
	}
	return nil
}

// Revoke removes accessType from a request. With no type the whole request
// is revoked.
func (s *Session) Revoke(ctx context.Context, requestID, accessType string) error {
	var err error
	if accessType == "" {
		_, err = s.client.access.RevokeAllAccess(ctx, s.caller, requestID)
	} else {
		_, err = s.client.access.RevokeSpecificAccess(ctx, s.caller, requestID, accessType)
	}
	if err != nil {
		return fmt.Errorf("failed to revoke request %s: %w", requestID, err)
	}
	return nil
}

// Access returns the session user's effective access types on an item.
func (s *Session) Access(ctx context.Context, itemID, itemType string) ([]string, error) {
	res, err := s.client.access.CheckUserAccess(ctx, s.caller, itemID, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	return res.AccessTypes, nil
}

// ItemUsers lists everyone with access to an item.
func (s *Session) ItemUsers(ctx context.Context, itemID, itemType string) ([]access.ItemUser, error) {
	users, err := s.client.access.GetItemUsers(ctx, itemID, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to list item users: %w", err)
	}
	return users, nil
}

