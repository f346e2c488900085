package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// RequestAccessRequest is the body of POST /api/access/request
type RequestAccessRequest struct {
	ItemID      string   `json:"itemId"`
	ItemType    string   `json:"itemType"`
	ItemName    string   `json:"itemName"`
	AccessTypes []string `json:"accessTypes"`
}

type RequestAccessResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// RequestAccess files a pending request and emails every admin.
func (s *Service) RequestAccess(ctx context.Context, caller *auth.Claims, req RequestAccessRequest) (*RequestAccessResponse, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.ItemName = strings.TrimSpace(req.ItemName)
	if req.ItemID == "" || req.ItemType == "" || req.ItemName == "" || len(req.AccessTypes) == 0 {
		return nil, apperrors.Invalid("Missing required fields")
	}
	if req.ItemType != typesdb.ItemTypeFile && req.ItemType != typesdb.ItemTypeFolder {
		return nil, apperrors.Invalid("Invalid itemType %q", req.ItemType)
	}
	types, err := NormalizeTypes(req.AccessTypes)
	if err != nil {
		return nil, err
	}
	joined := JoinTypes(types)

	id := ids.New()
	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.AccessRequests+`
			(id, user_email, item_id, item_type, item_name, access_types, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, caller.Email, req.ItemID, req.ItemType, req.ItemName, joined, typesdb.StatusPending, s.now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.audit.Log(ctx, activity.Entry{
		Action:       "request_access",
		Description:  fmt.Sprintf("Requested %s for %s %s", joined, req.ItemType, req.ItemName),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
		Meta:         map[string]any{"accessTypes": types, "requestId": id},
	})

	data := map[string]any{
		"requester":   caller.Email,
		"accessTypes": strings.Join(types, ", "),
		"itemType":    req.ItemType,
		"itemName":    req.ItemName,
	}
	for _, admin := range s.adminEmails(ctx) {
		s.sendMail(admin, "Access Request: "+req.ItemName, notify.TplAccessRequested, data)
	}

	return &RequestAccessResponse{Message: "Access request sent", RequestID: id}, nil
}
