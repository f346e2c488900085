package access

import (
	"context"
	"fmt"
	"log"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// UpdateAccessStatus approves or rejects a pending request. Decided
// requests cannot be decided again.
func (s *Service) UpdateAccessStatus(ctx context.Context, caller *auth.Claims, requestID, status string) (string, error) {
	if caller == nil || caller.Email == "" {
		return "", apperrors.Invalid("Admin email missing")
	}
	if err := requireAdmin(caller); err != nil {
		return "", err
	}
	if status != typesdb.StatusApproved && status != typesdb.StatusRejected {
		return "", apperrors.Invalid("Invalid status")
	}

	s.decisions.Lock()
	var req *typesdb.AccessRequest
	err := s.db.InTx(ctx, func(tx *db.Tx) error {
		var err error
		req, err = loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != typesdb.StatusPending {
			return apperrors.Conflict("Request already %s", req.Status)
		}

		if _, err := tx.Exec(`
			UPDATE `+tables.AccessRequests+`
			SET status = $1, approved_at = $2, approved_by = $3
			WHERE id = $4`,
			status, s.now().UTC(), caller.Email, requestID,
		); err != nil {
			return apperrors.Database(err)
		}

		if status == typesdb.StatusApproved && req.ItemType == typesdb.ItemTypeFile {
			return bumpShareCount(tx, req)
		}
		return nil
	})
	s.decisions.Unlock()
	if err != nil {
		return "", err
	}

	label := "Approved"
	if status == typesdb.StatusRejected {
		label = "Rejected"
	}

	s.sendMail(req.UserEmail, "Access Request "+label, notify.TplAccessDecision, map[string]any{
		"accessTypes": req.AccessTypes,
		"itemName":    req.ItemName,
		"status":      status,
	})

	if s.notifier != nil {
		title := fmt.Sprintf("Access %s: %s", label, req.ItemName)
		body := fmt.Sprintf("Your request for %s has been %s.", req.AccessTypes, status)
		if _, err := s.notifier.Create(ctx, req.UserEmail, title, body); err != nil {
			log.Printf("⚠️  Failed to create notification for %s: %v", req.UserEmail, err)
		}
	}

	s.audit.Log(ctx, activity.Entry{
		Action:       "access_" + status,
		Description:  fmt.Sprintf("Access %s for %s %s", status, req.ItemType, req.ItemName),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
		Meta:         map[string]any{"accessTypes": req.AccessTypes, "requestId": requestID},
	})

	return "Request " + status, nil
}

// bumpShareCount counts a file share once per user: only when the
// requester holds no other approved request for the file.
func bumpShareCount(tx *db.Tx, req *typesdb.AccessRequest) error {
	var others int64
	err := tx.QueryRow(`
		SELECT COUNT(*) FROM `+tables.AccessRequests+`
		WHERE item_id = $1 AND user_email = $2 AND item_type = $3 AND status = $4 AND id <> $5`,
		req.ItemID, req.UserEmail, typesdb.ItemTypeFile, typesdb.StatusApproved, req.ID,
	).Scan(&others)
	if err != nil {
		return apperrors.Database(err)
	}
	if others > 0 {
		log.Printf("ℹ️  %s already has approved access to file %s, shares_count unchanged", req.UserEmail, req.ItemID)
		return nil
	}
	if _, err := tx.Exec("UPDATE "+tables.Files+" SET shares_count = shares_count + 1 WHERE id = $1", req.ItemID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
