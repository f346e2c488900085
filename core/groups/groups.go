// Package groups manages named member lists. Members hear about being added
// to or removed from a group through the inbox and by email.
package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

type Notifier interface {
	Create(ctx context.Context, email, title, body string) (*typesdb.Notification, error)
}

type Service struct {
	db       *db.DB
	mailer   notify.Mailer
	notifier Notifier
	now      func() time.Time
	dispatch func(func())
}

func NewService(database *db.DB, mailer notify.Mailer, notifier Notifier) *Service {
	return &Service{
		db:       database,
		mailer:   mailer,
		notifier: notifier,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

// CreateGroupRequest is the body of POST /api/groups. AdminName defaults to
// the caller's name.
type CreateGroupRequest struct {
	GroupName string   `json:"groupName"`
	Users     []string `json:"users"`
	AdminName string   `json:"adminName"`
}

type CreateGroupResponse struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	GroupName string `json:"groupName"`
}

// ParseMembers reads the stored member list. Rows written as a plain comma
// separated string are still accepted.
func ParseMembers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var members []string
	if err := json.Unmarshal([]byte(raw), &members); err == nil {
		if members == nil {
			return []string{}
		}
		return members
	}
	out := []string{}
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) List(ctx context.Context) ([]typesdb.Group, error) {
	rows, err := s.db.Query(ctx, tables.Groups,
		"SELECT id, group_name, members, created_by, created_at FROM "+tables.Groups+" ORDER BY created_at DESC, id")
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	groups := []typesdb.Group{}
	for rows.Next() {
		var g typesdb.Group
		var members string
		if err := rows.Scan(&g.ID, &g.GroupName, &members, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		g.Members = ParseMembers(members)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return groups, nil
}

func (s *Service) Create(ctx context.Context, caller *auth.Claims, req CreateGroupRequest) (*CreateGroupResponse, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	name := strings.TrimSpace(req.GroupName)
	if name == "" {
		return nil, apperrors.Invalid("Group name is required")
	}
	members := []string{}
	for _, m := range req.Users {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return nil, apperrors.Invalid("At least one member email is required")
	}
	adminName := strings.TrimSpace(req.AdminName)
	if adminName == "" {
		adminName = caller.Name
	}

	encoded, err := json.Marshal(members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	id := ids.New()
	_, err = s.db.Exec(ctx,
		"INSERT INTO "+tables.Groups+" (id, group_name, members, created_by, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, name, string(encoded), adminName, s.now().UTC())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	title := "Added to Group: " + name
	body := fmt.Sprintf("You have been added to group %s.", name)
	if adminName != "" {
		body = fmt.Sprintf("You have been added to group %s by %s.", name, adminName)
	}
	html, err := notify.Render(notify.TplGroupAdded, map[string]any{
		"groupName": name,
		"createdBy": adminName,
		"members":   members,
	})
	if err != nil {
		log.Printf("❌ Could not render group email: %v", err)
	}
	s.fanOut(members, title, body, html)

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "create_group",
		Description:  fmt.Sprintf("Created group %s with %d members", name, len(members)),
		ResourceID:   id,
		ResourceType: "group",
	})

	return &CreateGroupResponse{
		Message:   "Group created successfully. Users will be notified (in-app).",
		ID:        id,
		GroupName: name,
	}, nil
}

// Delete removes a group and tells its former members. Deleting an unknown
// id succeeds without notifying anyone.
func (s *Service) Delete(ctx context.Context, caller *auth.Claims, id string) (string, error) {
	if !caller.IsAdmin() {
		return "", apperrors.Forbidden("Admin access required")
	}

	var name, raw string
	err := s.db.QueryRow(ctx, "SELECT group_name, members FROM "+tables.Groups+" WHERE id = $1", id).Scan(&name, &raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.Database(err)
	}
	found := err == nil

	if _, err := s.db.Exec(ctx, "DELETE FROM "+tables.Groups+" WHERE id = $1", id); err != nil {
		return "", apperrors.Database(err)
	}

	if found {
		label := name
		if label == "" {
			label = "(group)"
		}
		html, err := notify.Render(notify.TplGroupDeleted, map[string]any{"groupName": label})
		if err != nil {
			log.Printf("❌ Could not render group email: %v", err)
		}
		s.fanOut(ParseMembers(raw), "Removed from Group: "+label,
			fmt.Sprintf("You have been removed from group %s.", label), html)

		activity.Record(ctx, s.db, activity.Entry{
			Action:       "delete_group",
			Description:  "Deleted group " + label,
			ResourceID:   id,
			ResourceType: "group",
		})
	}
	return "Group deleted successfully", nil
}

// fanOut notifies every member in the background. Failures are logged per
// member and never surface to the caller.
func (s *Service) fanOut(members []string, title, body, html string) {
	s.dispatch(func() {
		ctx := context.Background()
		for _, email := range members {
			if s.notifier != nil {
				if _, err := s.notifier.Create(ctx, email, title, body); err != nil {
					log.Printf("⚠️  Could not notify %s: %v", email, err)
				}
			}
			if s.mailer == nil || html == "" {
				continue
			}
			if res := s.mailer.Send(ctx, email, title, html); !res.Success {
				log.Printf("⚠️  Failed to email %s (%q): %s", email, title, res.Error)
			}
		}
	})
}
