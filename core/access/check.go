package access

import (
	"context"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

type CheckAccessResponse struct {
	HasAccess   bool     `json:"hasAccess"`
	AccessTypes []string `json:"accessTypes"`
}

// CheckUserAccess reports the caller's effective access to an item: every
// type for admins, otherwise the union over their approved requests.
func (s *Service) CheckUserAccess(ctx context.Context, caller *auth.Claims, itemID, itemType string) (*CheckAccessResponse, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}
	if caller.Role == typesdb.RoleAdmin {
		return &CheckAccessResponse{HasAccess: true, AccessTypes: AllTypes()}, nil
	}
	if itemID == "" || itemType == "" {
		return nil, apperrors.Invalid("Missing itemId or itemType")
	}

	rows, err := s.db.Query(ctx, tables.AccessRequests, `
		SELECT access_types FROM `+tables.AccessRequests+`
		WHERE user_email = $1 AND item_id = $2 AND item_type = $3 AND status = $4`,
		caller.Email, itemID, itemType, typesdb.StatusApproved,
	)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	var stored []string
	for rows.Next() {
		var types string
		if err := rows.Scan(&types); err != nil {
			return nil, apperrors.Database(err)
		}
		stored = append(stored, types)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}

	types := Union(stored...)
	return &CheckAccessResponse{HasAccess: len(types) > 0, AccessTypes: types}, nil
}
