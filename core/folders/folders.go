package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/core/trash"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// CreateFolderRequest represents the input for creating a folder
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// CreateFolder creates a top-level folder owned by the caller
func CreateFolder(ctx context.Context, database *db.DB, caller *auth.Claims, req CreateFolderRequest) (*typesdb.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Invalid("Folder name is required")
	}
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	folder := &typesdb.Folder{
		ID:        ids.New(),
		Name:      name,
		CreatedBy: caller.Email,
		CreatedAt: time.Now().UTC(),
	}
	_, err := database.Exec(ctx,
		"INSERT INTO "+tables.Folders+" (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)",
		folder.ID, folder.Name, folder.CreatedBy, folder.CreatedAt)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "create_folder",
		Description:  fmt.Sprintf("Folder %q created", name),
		ResourceID:   folder.ID,
		ResourceType: typesdb.ItemTypeFolder,
	})
	return folder, nil
}

// ListFolders lists every folder with its file count and total size
func ListFolders(ctx context.Context, database *db.DB) ([]typesdb.FolderSummary, error) {
	rows, err := database.Query(ctx, tables.Folders, `
		SELECT f.id, f.name, f.created_by, f.created_at,
			CAST(COALESCE(fs.file_count, 0) AS BIGINT),
			CAST(COALESCE(fs.total_size, 0) AS BIGINT)
		FROM `+tables.Folders+` f
		LEFT JOIN (
			SELECT folder_id, COUNT(*) AS file_count, SUM(file_size) AS total_size
			FROM `+tables.Files+`
			GROUP BY folder_id
		) fs ON f.id = fs.folder_id
		ORDER BY f.created_at DESC, f.id`)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	folders := []typesdb.FolderSummary{}
	for rows.Next() {
		var f typesdb.FolderSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedBy, &f.CreatedAt, &f.FileCount, &f.TotalSize); err != nil {
			return nil, apperrors.Database(err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return folders, nil
}

// OpenFolder returns the files inside a folder, newest first
func OpenFolder(ctx context.Context, database *db.DB, folderID string) ([]typesdb.File, error) {
	rows, err := database.Query(ctx, tables.Files,
		"SELECT "+files.Columns+" FROM "+tables.Files+" WHERE folder_id = $1 ORDER BY uploaded_at DESC, id", folderID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()
	return files.Collect(rows)
}

type RenameFolderResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Name    string `json:"name"`
}

// RenameFolder renames a folder. Only its creator may rename it.
func RenameFolder(ctx context.Context, database *db.DB, caller *auth.Claims, folderID, name string) (*RenameFolderResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Invalid("Folder name is required")
	}

	var createdBy string
	err := database.QueryRow(ctx, "SELECT created_by FROM "+tables.Folders+" WHERE id = $1", folderID).Scan(&createdBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Folder not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if caller == nil || createdBy != caller.Email {
		return nil, apperrors.Forbidden("Only folder creator can rename")
	}

	if _, err := database.Exec(ctx, "UPDATE "+tables.Folders+" SET name = $1 WHERE id = $2", name, folderID); err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "rename_folder",
		Description:  fmt.Sprintf("Folder renamed to %q", name),
		ResourceID:   folderID,
		ResourceType: typesdb.ItemTypeFolder,
	})
	return &RenameFolderResponse{Message: "Folder renamed successfully", ID: folderID, Name: name}, nil
}

// DeleteFolder moves the folder and all of its files to the trash in one
// transaction.
func DeleteFolder(ctx context.Context, database *db.DB, caller *auth.Claims, folderID string) (string, error) {
	deletedBy := "system"
	if caller != nil && caller.Email != "" {
		deletedBy = caller.Email
	}
	err := database.InTx(ctx, func(tx *db.Tx) error {
		moved, err := trash.MoveFolder(tx, folderID, deletedBy, time.Now())
		if err != nil {
			return apperrors.Database(err)
		}
		if !moved {
			return apperrors.NotFound("Folder not found")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "delete_folder",
		Description:  fmt.Sprintf("Folder %s moved to trash", folderID),
		ResourceID:   folderID,
		ResourceType: typesdb.ItemTypeFolder,
	})
	return "Folder and its files moved to trash", nil
}
