package access

import (
	"context"
	"strconv"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

const listLimit = 100

// ListAccessRequests returns the newest requests of every status.
func (s *Service) ListAccessRequests(ctx context.Context, caller *auth.Claims) ([]typesdb.AccessRequest, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, tables.AccessRequests,
		"SELECT "+requestColumns+" FROM "+tables.AccessRequests+" ORDER BY requested_at DESC, id LIMIT "+strconv.Itoa(listLimit))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	requests := []typesdb.AccessRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return requests, nil
}

func requireAdmin(caller *auth.Claims) error {
	if caller == nil || caller.Role != typesdb.RoleAdmin {
		return apperrors.Forbidden("Admin only")
	}
	return nil
}
