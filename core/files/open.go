package files

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

type ViewResponse struct {
	URL string `json:"url"`
}

// View counts a view and returns a presigned URL for the file.
func (s *Service) View(ctx context.Context, id string) (*ViewResponse, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, "views_count", id)

	url, err := s.store.PresignGet(ctx, f.BlobKey, s.presignTTL)
	if err != nil {
		return nil, apperrors.Upstream("Failed to generate file URL", err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "view_file",
		Description:  fmt.Sprintf("Viewed file %s", id),
		ResourceID:   id,
		ResourceType: typesdb.ItemTypeFile,
	})
	return &ViewResponse{URL: url}, nil
}

// Download is an open blob plus the name to serve it under.
type Download struct {
	FileName string
	Object   *blob.Object
}

// Download counts a download and opens the file body. The caller closes
// Object.Body.
func (s *Service) Download(ctx context.Context, id string) (*Download, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, "downloads_count", id)

	obj, err := s.store.Get(ctx, f.BlobKey)
	if err != nil {
		return nil, apperrors.Upstream("Error downloading file", err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "download_file",
		Description:  fmt.Sprintf("Downloaded file %s", f.FileName),
		ResourceID:   id,
		ResourceType: typesdb.ItemTypeFile,
	})
	return &Download{FileName: f.FileName, Object: obj}, nil
}

// bump increments a counter column in place. Counters are best-effort.
func (s *Service) bump(ctx context.Context, column, id string) {
	if _, err := s.db.Exec(ctx, "UPDATE "+tables.Files+" SET "+column+" = "+column+" + 1 WHERE id = $1", id); err != nil {
		log.Printf("⚠️  Could not update %s for file %s: %v", column, id, err)
	}
}

// AddComment attaches a comment to an existing file.
func (s *Service) AddComment(ctx context.Context, caller *auth.Claims, fileID, comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", apperrors.Invalid("Comment is required")
	}
	if caller == nil || caller.Email == "" {
		return "", apperrors.Invalid("User email missing")
	}
	if _, err := s.Get(ctx, fileID); err != nil {
		return "", err
	}

	_, err := s.db.Exec(ctx,
		"INSERT INTO "+tables.FileComments+" (id, file_id, user_email, comment, created_at) VALUES ($1, $2, $3, $4, $5)",
		ids.New(), fileID, caller.Email, comment, s.now().UTC())
	if err != nil {
		return "", apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "comment_file",
		Description:  fmt.Sprintf("Comment added on file %s", fileID),
		ResourceID:   fileID,
		ResourceType: typesdb.ItemTypeFile,
	})
	return "Comment added successfully", nil
}

// Comments lists a file's comments, oldest first.
func (s *Service) Comments(ctx context.Context, fileID string) ([]typesdb.FileComment, error) {
	rows, err := s.db.Query(ctx, tables.FileComments,
		"SELECT id, file_id, user_email, comment, created_at FROM "+tables.FileComments+
			" WHERE file_id = $1 ORDER BY created_at, id", fileID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	comments := []typesdb.FileComment{}
	for rows.Next() {
		var c typesdb.FileComment
		if err := rows.Scan(&c.ID, &c.FileID, &c.UserEmail, &c.Comment, &c.CreatedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return comments, nil
}
