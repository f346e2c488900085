package access

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// ItemUser is one user with effective access to an item.
type ItemUser struct {
	UserEmail   string     `json:"user_email"`
	Name        string     `json:"name,omitempty"`
	AccessTypes []string   `json:"access_types"`
	IsAdmin     bool       `json:"isAdmin"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
}

const itemUsersAdminLimit = 20

// GetItemUsers lists admins first, then every approved requester of the
// item with their types unioned. A user appears once; admin wins.
func (s *Service) GetItemUsers(ctx context.Context, itemID, itemType string) ([]ItemUser, error) {
	if itemID == "" || itemType == "" {
		return nil, apperrors.Invalid("Missing itemId or itemType")
	}

	users := []ItemUser{}
	seen := make(map[string]int)

	admins, err := s.itemAdmins(ctx)
	if err != nil {
		log.Printf("⚠️  Could not load admins for %s %s, listing requesters only: %v", itemType, itemID, err)
	}
	for _, u := range admins {
		seen[u.UserEmail] = len(users)
		users = append(users, u)
	}

	rows, err := s.db.Query(ctx, tables.AccessRequests, `
		SELECT user_email, access_types, approved_at, approved_by
		FROM `+tables.AccessRequests+`
		WHERE item_id = $1 AND item_type = $2 AND status = $3
		ORDER BY approved_at DESC`,
		itemID, itemType, typesdb.StatusApproved)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			email, types string
			approvedAt   *time.Time
			approvedBy   *string
		)
		if err := rows.Scan(&email, &types, &approvedAt, &approvedBy); err != nil {
			return nil, apperrors.Database(err)
		}
		if i, ok := seen[email]; ok {
			if !users[i].IsAdmin {
				users[i].AccessTypes = Union(JoinTypes(users[i].AccessTypes), types)
			}
			continue
		}
		seen[email] = len(users)
		users = append(users, ItemUser{
			UserEmail:   email,
			AccessTypes: ParseTypes(types),
			ApprovedAt:  approvedAt,
			ApprovedBy:  approvedBy,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}

func (s *Service) itemAdmins(ctx context.Context) ([]ItemUser, error) {
	rows, err := s.db.Query(ctx, tables.Users,
		"SELECT email, name FROM "+tables.Users+" WHERE role = $1 ORDER BY email LIMIT "+strconv.Itoa(itemUsersAdminLimit),
		typesdb.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []ItemUser
	for rows.Next() {
		u := ItemUser{AccessTypes: AllTypes(), IsAdmin: true}
		if err := rows.Scan(&u.UserEmail, &u.Name); err != nil {
			return nil, err
		}
		admins = append(admins, u)
	}
	return admins, rows.Err()
}
