package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/core/trash"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps the OFFSET well inside int range
	MaxPage         = 1_000_000
)

// Columns is the select list ScanRow expects.
const Columns = `id, folder_id, file_name, blob_key, file_url, file_size, file_type,
	uploaded_by, uploaded_at, views_count, downloads_count, shares_count`

// ScanRow reads one files row selected with Columns.
func ScanRow(row interface{ Scan(...any) error }) (*typesdb.File, error) {
	var f typesdb.File
	err := row.Scan(&f.ID, &f.FolderID, &f.FileName, &f.BlobKey, &f.FileURL, &f.FileSize, &f.FileType,
		&f.UploadedBy, &f.UploadedAt, &f.ViewsCount, &f.DownloadsCount, &f.SharesCount)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type Service struct {
	db         *db.DB
	store      blob.Store
	presignTTL time.Duration
	now        func() time.Time
}

func NewService(database *db.DB, store blob.Store, presignTTL time.Duration) *Service {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &Service{db: database, store: store, presignTTL: presignTTL, now: time.Now}
}

// UploadRequest carries one multipart file part.
type UploadRequest struct {
	FolderID    string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// Upload stores the body at <folderId>/<name> and records the file.
func (s *Service) Upload(ctx context.Context, caller *auth.Claims, req UploadRequest) (*UploadResponse, error) {
	req.FileName = strings.TrimSpace(req.FileName)
	if req.Body == nil || req.FileName == "" {
		return nil, apperrors.Invalid("No file uploaded")
	}
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}
	if err := s.folderExists(ctx, req.FolderID); err != nil {
		return nil, err
	}
	if req.ContentType == "" {
		req.ContentType = blob.ContentType(req.FileName)
	}

	key := blob.Key(req.FolderID, req.FileName)
	url, err := s.store.Put(ctx, key, req.Body, req.Size, req.ContentType)
	if err != nil {
		return nil, apperrors.Upstream("Failed to store file", err)
	}

	id := ids.New()
	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.Files+`
			(id, folder_id, file_name, blob_key, file_url, file_size, file_type, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, req.FolderID, req.FileName, key, url, req.Size, req.ContentType, caller.Email, s.now().UTC(),
	)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "upload_file",
		Description:  fmt.Sprintf("Uploaded %q to folder %s", req.FileName, req.FolderID),
		ResourceID:   id,
		ResourceType: typesdb.ItemTypeFile,
		Meta:         map[string]any{"folderId": req.FolderID, "size": req.Size, "type": req.ContentType},
	})

	return &UploadResponse{ID: id, FileName: req.FileName, URL: url, Size: req.Size, Type: req.ContentType}, nil
}

func (s *Service) folderExists(ctx context.Context, folderID string) error {
	if strings.TrimSpace(folderID) == "" {
		return apperrors.Invalid("Folder id is required")
	}
	var one int
	err := s.db.QueryRow(ctx, "SELECT 1 FROM "+tables.Folders+" WHERE id = $1", folderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("Folder not found")
	}
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// List pages through a folder's files, newest first.
func (s *Service) List(ctx context.Context, folderID string, page, limit int) ([]typesdb.File, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	page = min(max(page, 1), MaxPage)

	rows, err := s.db.Query(ctx, tables.Files,
		"SELECT "+Columns+" FROM "+tables.Files+" WHERE folder_id = $1 ORDER BY uploaded_at DESC, id"+
			" LIMIT "+strconv.Itoa(limit)+" OFFSET "+strconv.Itoa((page-1)*limit),
		folderID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()
	return Collect(rows)
}

// Collect drains rows selected with Columns.
func Collect(rows *db.Rows) ([]typesdb.File, error) {
	out := []typesdb.File{}
	for rows.Next() {
		f, err := ScanRow(rows)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

// Get loads one file or returns NotFound.
func (s *Service) Get(ctx context.Context, id string) (*typesdb.File, error) {
	f, err := ScanRow(s.db.QueryRow(ctx, "SELECT "+Columns+" FROM "+tables.Files+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("File not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return f, nil
}

// Delete moves the file to the trash.
func (s *Service) Delete(ctx context.Context, caller *auth.Claims, id string) (string, error) {
	deletedBy := "system"
	if caller != nil && caller.Email != "" {
		deletedBy = caller.Email
	}
	err := s.db.InTx(ctx, func(tx *db.Tx) error {
		moved, err := trash.MoveFile(tx, id, deletedBy, s.now())
		if err != nil {
			return apperrors.Database(err)
		}
		if !moved {
			return apperrors.NotFound("File not found")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "delete_file",
		Description:  fmt.Sprintf("File %s moved to trash", id),
		ResourceID:   id,
		ResourceType: typesdb.ItemTypeFile,
	})
	return "File moved to trash", nil
}
