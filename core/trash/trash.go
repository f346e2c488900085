// Package trash moves deleted files and folders into the trash table and
// brings them back. Every move is a snapshot insert plus a delete from the
// live table inside the caller's transaction.
package trash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

const trashColumns = `id, item_type, item_name, deleted_by, deleted_at, restored, folder_id,
	blob_key, file_url, file_size, file_type, uploaded_by, uploaded_at, created_by, created_at`

const snapshotFiles = `
	INSERT INTO ` + tables.Trash + ` (` + trashColumns + `)
	SELECT id, 'file', file_name, CAST($1 AS VARCHAR), CAST($2 AS TIMESTAMP), FALSE, folder_id,
		blob_key, file_url, file_size, file_type, uploaded_by, uploaded_at, uploaded_by, uploaded_at
	FROM ` + tables.Files + ` WHERE `

// MoveFile snapshots one file into the trash and removes it. It reports
// false when the file does not exist.
func MoveFile(tx *db.Tx, fileID, deletedBy string, at time.Time) (bool, error) {
	var name string
	err := tx.QueryRow("SELECT file_name FROM "+tables.Files+" WHERE id = $1", fileID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(snapshotFiles+"id = $3", deletedBy, at.UTC(), fileID); err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM "+tables.Files+" WHERE id = $1", fileID); err != nil {
		return false, err
	}
	return true, nil
}

// MoveFolder snapshots a folder and every file in it, then removes them.
// It reports false when the folder does not exist.
func MoveFolder(tx *db.Tx, folderID, deletedBy string, at time.Time) (bool, error) {
	var name string
	err := tx.QueryRow("SELECT name FROM "+tables.Folders+" WHERE id = $1", folderID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	at = at.UTC()
	if _, err := tx.Exec(`
		INSERT INTO `+tables.Trash+` (`+trashColumns+`)
		SELECT id, 'folder', name, CAST($1 AS VARCHAR), CAST($2 AS TIMESTAMP), FALSE, NULL,
			NULL, NULL, NULL, NULL, NULL, NULL, created_by, created_at
		FROM `+tables.Folders+` WHERE id = $3`,
		deletedBy, at, folderID,
	); err != nil {
		return false, err
	}
	if _, err := tx.Exec(snapshotFiles+"folder_id = $3", deletedBy, at, folderID); err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM "+tables.Files+" WHERE folder_id = $1", folderID); err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM "+tables.Folders+" WHERE id = $1", folderID); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every trash entry, most recently deleted first.
func List(ctx context.Context, database *db.DB) ([]typesdb.TrashEntry, error) {
	rows, err := database.Query(ctx, tables.Trash,
		"SELECT "+trashColumns+" FROM "+tables.Trash+" ORDER BY deleted_at DESC, id")
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	entries := []typesdb.TrashEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return entries, nil
}

func scanEntry(row interface{ Scan(...any) error }) (*typesdb.TrashEntry, error) {
	var e typesdb.TrashEntry
	err := row.Scan(&e.ID, &e.ItemType, &e.ItemName, &e.DeletedBy, &e.DeletedAt, &e.Restored, &e.FolderID,
		&e.BlobKey, &e.FileURL, &e.FileSize, &e.FileType, &e.UploadedBy, &e.UploadedAt, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func load(tx *db.Tx, id string) (*typesdb.TrashEntry, error) {
	e, err := scanEntry(tx.QueryRow("SELECT "+trashColumns+" FROM "+tables.Trash+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Item not found in trash")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return e, nil
}

// Restore puts a trashed item back into its live table. Restoring a folder
// does not restore the files trashed with it; they are restored one by one.
func Restore(ctx context.Context, database *db.DB, caller *auth.Claims, id string) (string, error) {
	fallbackUser := "system"
	if caller != nil && caller.Email != "" {
		fallbackUser = caller.Email
	}
	now := time.Now().UTC()

	var entry *typesdb.TrashEntry
	err := database.InTx(ctx, func(tx *db.Tx) error {
		var err error
		if entry, err = load(tx, id); err != nil {
			return err
		}

		switch entry.ItemType {
		case typesdb.ItemTypeFile:
			_, err = tx.Exec(`
				INSERT INTO `+tables.Files+`
					(id, folder_id, file_name, blob_key, file_url, file_size, file_type, uploaded_by, uploaded_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				entry.ID, deref(entry.FolderID, ""), entry.ItemName, deref(entry.BlobKey, ""), deref(entry.FileURL, ""),
				derefInt(entry.FileSize), deref(entry.FileType, "application/octet-stream"),
				deref(entry.UploadedBy, deref(entry.CreatedBy, fallbackUser)),
				derefTime(entry.UploadedAt, derefTime(entry.CreatedAt, now)),
			)
		case typesdb.ItemTypeFolder:
			_, err = tx.Exec("INSERT INTO "+tables.Folders+" (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)",
				entry.ID, entry.ItemName, deref(entry.CreatedBy, fallbackUser), derefTime(entry.CreatedAt, now))
		default:
			return apperrors.Invalid("Unsupported item type")
		}
		if err != nil {
			return apperrors.Database(err)
		}

		if _, err := tx.Exec("DELETE FROM "+tables.Trash+" WHERE id = $1", id); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "restore_item",
		Description:  fmt.Sprintf("Restored %s %s from trash", entry.ItemType, id),
		ResourceID:   id,
		ResourceType: entry.ItemType,
	})
	return "Item restored", nil
}

// PermanentDelete drops the trash row. The blob of a file is deleted too;
// a failed blob delete is logged and does not stop the row removal.
func PermanentDelete(ctx context.Context, database *db.DB, store blob.Store, id string) (string, error) {
	var entry *typesdb.TrashEntry
	err := database.InTx(ctx, func(tx *db.Tx) error {
		var err error
		if entry, err = load(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM "+tables.Trash+" WHERE id = $1", id); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	isFile := entry.ItemType == typesdb.ItemTypeFile
	if key := deref(entry.BlobKey, ""); isFile && key != "" && store != nil {
		if err := store.Delete(ctx, key); err != nil {
			log.Printf("⚠️  Failed to delete blob %s for trashed file %s: %v", key, id, err)
		} else {
			log.Printf("🗑️  Deleted blob %s", key)
		}
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "permanent_delete",
		Description:  fmt.Sprintf("Permanently deleted %s %q from trash", entry.ItemType, entry.ItemName),
		ResourceID:   id,
		ResourceType: entry.ItemType,
		Meta:         map[string]any{"itemName": entry.ItemName, "wasFile": isFile},
	})
	return "Item permanently deleted", nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func derefTime(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.UTC()
}
