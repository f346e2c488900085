// Package storage keeps per-user storage bookkeeping: the quota row in
// user_storage and the items a user saved into it in storage_files.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// DefaultQuotaMB is the quota of a user without a user_storage row.
const DefaultQuotaMB = 5000

const bytesPerMB = 1024 * 1024

const columns = `id, user_email, item_id, item_name, item_type, file_size_mb, storage_ref, parent_ref, added_at`

// Usage is the body of GET /api/storage
type Usage struct {
	UserEmail    string  `json:"userEmail"`
	TotalQuotaMB float64 `json:"totalQuotaMb"`
	UsedMB       float64 `json:"usedMb"`
	PercentUsed  float64 `json:"percentUsed"`
	// RoomUsedMB is the size of every file uploaded to the room.
	RoomUsedMB float64 `json:"roomUsedMb"`
}

// AddRequest is the body of POST /api/storage/add
type AddRequest struct {
	ItemID     string  `json:"itemId"`
	ItemName   string  `json:"itemName"`
	FileSizeMB float64 `json:"fileSizeMb"`
	ItemType   string  `json:"itemType"`
}

// AddFolderRequest is the body of POST /api/storage/add-folder
type AddFolderRequest struct {
	FolderID     string  `json:"folderId"`
	FolderName   string  `json:"folderName"`
	FolderSizeMB float64 `json:"folderSizeMb"`
}

type AddResponse struct {
	Message    string `json:"message"`
	StorageRef string `json:"storageRef"`
}

// GetUsage reports the caller's quota and what they have used of it.
func GetUsage(ctx context.Context, database *db.DB, caller *auth.Claims) (*Usage, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	u := &Usage{UserEmail: caller.Email, TotalQuotaMB: DefaultQuotaMB}
	err := database.QueryRow(ctx,
		"SELECT total_quota_mb, used_mb FROM "+tables.UserStorage+" WHERE user_email = $1",
		caller.Email).Scan(&u.TotalQuotaMB, &u.UsedMB)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Database(err)
	}

	var roomBytes int64
	err = database.QueryRow(ctx, "SELECT CAST(COALESCE(SUM(file_size), 0) AS BIGINT) FROM "+tables.Files).Scan(&roomBytes)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	u.RoomUsedMB = round2(float64(roomBytes) / bytesPerMB)
	u.UsedMB = round2(u.UsedMB)
	if u.TotalQuotaMB > 0 {
		u.PercentUsed = round2(u.UsedMB / u.TotalQuotaMB * 100)
	}
	return u, nil
}

// List returns the caller's saved items, newest first.
func List(ctx context.Context, database *db.DB, caller *auth.Claims) ([]typesdb.StorageFile, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	rows, err := database.Query(ctx, tables.StorageFiles,
		"SELECT "+columns+" FROM "+tables.StorageFiles+" WHERE user_email = $1 ORDER BY added_at DESC, id",
		caller.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	out := []typesdb.StorageFile{}
	for rows.Next() {
		var f typesdb.StorageFile
		if err := rows.Scan(&f.ID, &f.UserEmail, &f.ItemID, &f.ItemName, &f.ItemType,
			&f.FileSizeMB, &f.StorageRef, &f.ParentRef, &f.AddedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

// Add saves a file or folder into the caller's storage and charges its size
// against their quota. The same item may be saved more than once. Saving a
// file counts as a download of it.
func Add(ctx context.Context, database *db.DB, caller *auth.Claims, req AddRequest) (*AddResponse, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.ItemID == "" || strings.TrimSpace(req.ItemName) == "" || req.FileSizeMB <= 0 {
		return nil, apperrors.Invalid("Missing required fields")
	}
	if req.ItemType == "" {
		req.ItemType = typesdb.ItemTypeFile
	}
	if req.ItemType != typesdb.ItemTypeFile && req.ItemType != typesdb.ItemTypeFolder {
		return nil, apperrors.Invalid("Invalid itemType %q", req.ItemType)
	}
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	ref := ids.New()
	now := time.Now().UTC()
	err := database.InTx(ctx, func(tx *db.Tx) error {
		if err := reserve(tx, caller.Email, req.FileSizeMB, now); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO "+tables.StorageFiles+" ("+columns+") VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)",
			ids.New(), caller.Email, req.ItemID, req.ItemName, req.ItemType, req.FileSizeMB, ref, now); err != nil {
			return apperrors.Database(err)
		}
		if req.ItemType == typesdb.ItemTypeFile {
			if _, err := tx.Exec("UPDATE "+tables.Files+" SET downloads_count = downloads_count + 1 WHERE id = $1", req.ItemID); err != nil {
				return apperrors.Database(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "add_to_storage",
		Description:  fmt.Sprintf("Added %s to storage", req.ItemType),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
		Meta:         map[string]any{"sizeMb": req.FileSizeMB},
	})
	return &AddResponse{Message: "Item added to storage", StorageRef: ref}, nil
}

// AddFolder saves a folder and a child row for each of its files. Children
// point at the folder row through parent_ref and each counts as a download.
// The charge is the larger of the declared folder size and the sum of the
// children, and the folder row holds whatever the children do not, so
// removing the folder frees exactly what was charged.
func AddFolder(ctx context.Context, database *db.DB, caller *auth.Claims, req AddFolderRequest) (*AddResponse, error) {
	req.FolderID = strings.TrimSpace(req.FolderID)
	if req.FolderID == "" || strings.TrimSpace(req.FolderName) == "" || req.FolderSizeMB <= 0 {
		return nil, apperrors.Invalid("Missing required fields")
	}
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	ref := ids.New()
	now := time.Now().UTC()
	var charged float64
	err := database.InTx(ctx, func(tx *db.Tx) error {
		children, err := folderFiles(tx, req.FolderID)
		if err != nil {
			return err
		}
		var childMB float64
		for _, c := range children {
			childMB += c.FileSizeMB
		}
		charged = math.Max(req.FolderSizeMB, childMB)

		if err := reserve(tx, caller.Email, charged, now); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO "+tables.StorageFiles+" ("+columns+") VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)",
			ids.New(), caller.Email, req.FolderID, req.FolderName, typesdb.ItemTypeFolder, charged-childMB, ref, now); err != nil {
			return apperrors.Database(err)
		}
		for _, c := range children {
			if _, err := tx.Exec(
				"INSERT INTO "+tables.StorageFiles+" ("+columns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
				ids.New(), caller.Email, c.ItemID, c.ItemName, typesdb.ItemTypeFile, c.FileSizeMB, ids.New(), ref, now); err != nil {
				return apperrors.Database(err)
			}
		}
		if _, err := tx.Exec("UPDATE "+tables.Files+" SET downloads_count = downloads_count + 1 WHERE folder_id = $1", req.FolderID); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "add_folder_to_storage",
		Description:  fmt.Sprintf("Folder %s added to storage", req.FolderName),
		ResourceID:   req.FolderID,
		ResourceType: typesdb.ItemTypeFolder,
		Meta:         map[string]any{"sizeMb": charged},
	})
	return &AddResponse{Message: "Folder added to storage with all contents", StorageRef: ref}, nil
}

// Remove drops a saved item by its storage_ref, or by item_id for the most
// recent save of that item. Removing a folder also drops its children and
// frees their size.
func Remove(ctx context.Context, database *db.DB, caller *auth.Claims, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", apperrors.Invalid("Storage reference is required")
	}
	if caller == nil || caller.Email == "" {
		return "", apperrors.Invalid("User email missing")
	}

	var itemType string
	var freed float64
	err := database.InTx(ctx, func(tx *db.Tx) error {
		var storageRef string
		err := tx.QueryRow(
			"SELECT storage_ref, item_type FROM "+tables.StorageFiles+" WHERE user_email = $1 AND storage_ref = $2",
			caller.Email, ref).Scan(&storageRef, &itemType)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRow(
				"SELECT storage_ref, item_type FROM "+tables.StorageFiles+" WHERE user_email = $1 AND item_id = $2 ORDER BY added_at DESC, id LIMIT 1",
				caller.Email, ref).Scan(&storageRef, &itemType)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("Item not in storage")
		}
		if err != nil {
			return apperrors.Database(err)
		}

		scope := "storage_ref = $2"
		if itemType == typesdb.ItemTypeFolder {
			scope = "(storage_ref = $2 OR parent_ref = $2)"
		}
		err = tx.QueryRow(
			"SELECT COALESCE(SUM(file_size_mb), 0) FROM "+tables.StorageFiles+" WHERE user_email = $1 AND "+scope,
			caller.Email, storageRef).Scan(&freed)
		if err != nil {
			return apperrors.Database(err)
		}
		if _, err := tx.Exec("DELETE FROM "+tables.StorageFiles+" WHERE user_email = $1 AND "+scope, caller.Email, storageRef); err != nil {
			return apperrors.Database(err)
		}
		if _, err := tx.Exec(
			"UPDATE "+tables.UserStorage+" SET used_mb = GREATEST(used_mb - $2, 0), updated_at = $3 WHERE user_email = $1",
			caller.Email, freed, time.Now().UTC()); err != nil {
			return apperrors.Database(err)
		}
		ref = storageRef
		return nil
	})
	if err != nil {
		return "", err
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "remove_from_storage",
		Description:  fmt.Sprintf("Removed %s from storage", itemType),
		ResourceID:   ref,
		ResourceType: itemType,
		Meta:         map[string]any{"freedMb": freed},
	})
	if itemType == typesdb.ItemTypeFolder {
		return "Folder removed from storage", nil
	}
	return "File removed from storage", nil
}

// reserve charges mb against the user's quota, creating their row on first
// use. It fails with a quota error, leaving usage untouched, when mb does not
// fit.
func reserve(tx *db.Tx, email string, mb float64, now time.Time) error {
	if _, err := tx.Exec(
		"INSERT INTO "+tables.UserStorage+" (user_email, total_quota_mb, used_mb, updated_at) VALUES ($1, $2, 0, $3) ON CONFLICT (user_email) DO NOTHING",
		email, DefaultQuotaMB, now); err != nil {
		return apperrors.Database(err)
	}

	var total, used float64
	err := tx.QueryRow("SELECT total_quota_mb, used_mb FROM "+tables.UserStorage+" WHERE user_email = $1", email).Scan(&total, &used)
	if err != nil {
		return apperrors.Database(err)
	}
	if used+mb > total {
		return apperrors.QuotaExceeded(mb, round2(math.Max(total-used, 0)))
	}

	_, err = tx.Exec("UPDATE "+tables.UserStorage+" SET used_mb = used_mb + $2, updated_at = $3 WHERE user_email = $1", email, mb, now)
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// folderFiles lists a folder's files sized in whole megabytes, at least one each.
func folderFiles(tx *db.Tx, folderID string) ([]typesdb.StorageFile, error) {
	rows, err := tx.Query("SELECT id, file_name, file_size FROM "+tables.Files+" WHERE folder_id = $1 ORDER BY uploaded_at, id", folderID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	var out []typesdb.StorageFile
	for rows.Next() {
		var f typesdb.StorageFile
		var size int64
		if err := rows.Scan(&f.ItemID, &f.ItemName, &size); err != nil {
			return nil, apperrors.Database(err)
		}
		f.FileSizeMB = math.Max(1, math.Ceil(float64(size)/bytesPerMB))
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
