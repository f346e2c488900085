package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// RevokeAllAccess deletes the request outright.
func (s *Service) RevokeAllAccess(ctx context.Context, caller *auth.Claims, requestID string) (string, error) {
	if err := requireAdmin(caller); err != nil {
		return "", err
	}

	var req *typesdb.AccessRequest
	err := s.db.InTx(ctx, func(tx *db.Tx) error {
		var err error
		if req, err = loadRequest(tx, requestID); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM "+tables.AccessRequests+" WHERE id = $1", requestID); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.sendMail(req.UserEmail, "Access Revoked: "+req.ItemName, notify.TplAccessRevokedAll, map[string]any{
		"itemName": req.ItemName,
	})
	s.audit.Log(ctx, activity.Entry{
		Action:       "revoke_access_all",
		Description:  fmt.Sprintf("Revoked all access for %s on %s", req.UserEmail, req.ItemName),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
		Meta:         map[string]any{"requestId": requestID},
	})
	return "All access revoked successfully", nil
}

// RevokeSpecificAccess removes one type from a request. A request left with
// no types is deleted.
func (s *Service) RevokeSpecificAccess(ctx context.Context, caller *auth.Claims, requestID, accessType string) (string, error) {
	if err := requireAdmin(caller); err != nil {
		return "", err
	}
	accessType = strings.ToUpper(strings.TrimSpace(accessType))
	if !isType(accessType) {
		return "", apperrors.Invalid("Invalid action or accessType")
	}

	var req *typesdb.AccessRequest
	err := s.db.InTx(ctx, func(tx *db.Tx) error {
		var err error
		if req, err = loadRequest(tx, requestID); err != nil {
			return err
		}

		var remaining []string
		for _, t := range ParseTypes(req.AccessTypes) {
			if t != accessType {
				remaining = append(remaining, t)
			}
		}

		if len(remaining) == 0 {
			_, err = tx.Exec("DELETE FROM "+tables.AccessRequests+" WHERE id = $1", requestID)
		} else {
			_, err = tx.Exec("UPDATE "+tables.AccessRequests+" SET access_types = $1 WHERE id = $2",
				JoinTypes(remaining), requestID)
		}
		if err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.sendMail(req.UserEmail, "Access Revoked: "+req.ItemName, notify.TplAccessRevokedType, map[string]any{
		"accessType": accessType,
		"itemName":   req.ItemName,
	})
	s.audit.Log(ctx, activity.Entry{
		Action:       "revoke_access_partial",
		Description:  fmt.Sprintf("Revoked %s for %s on %s", accessType, req.UserEmail, req.ItemName),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
		Meta:         map[string]any{"requestId": requestID, "accessType": accessType},
	})
	return accessType + " access revoked successfully", nil
}
