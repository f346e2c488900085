// Package reports aggregates file usage for the reporting screens: per file
// counters, which files have been shared, and the history of one file.
package reports

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Voltaic314/DataRoom/core/access"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// ActivityLimit caps the log rows returned with a file's activity.
const ActivityLimit = 200

// FileRow is one file of the files report.
type FileRow struct {
	typesdb.File
	FolderName string                  `json:"folder_name"`
	Shares     []typesdb.AccessRequest `json:"shares"`
}

// SharedFileRow is one file of the share report. ShareCount counts
// distinct users holding approved access.
type SharedFileRow struct {
	FileRow
	ShareCount   int64      `json:"share_count"`
	LastSharedAt *time.Time `json:"last_shared_at"`
}

type FileActivity struct {
	File             *typesdb.File           `json:"file"`
	ShareActivity    []typesdb.AccessRequest `json:"shareActivity"`
	SharesCount      int                     `json:"sharesCount"`
	AccessTypeCounts map[string]int          `json:"accessTypeCounts"`
	ViewsCount       int64                   `json:"viewsCount"`
	DownloadsCount   int64                   `json:"downloadsCount"`
	Logs             []typesdb.ActivityLog   `json:"logs"`
}

const fileReportColumns = `f.id, f.folder_id, f.file_name, f.blob_key, f.file_url, f.file_size, f.file_type,
	f.uploaded_by, f.uploaded_at, f.views_count, f.downloads_count, f.shares_count, COALESCE(fo.name, '')`

// approvedShares loads approved file requests keyed by file id, newest
// approval first.
func approvedShares(ctx context.Context, database *db.DB, fileID string) (map[string][]typesdb.AccessRequest, error) {
	query := `SELECT id, user_email, item_id, item_type, item_name, access_types, status,
			requested_at, approved_at, approved_by
		FROM ` + tables.AccessRequests + `
		WHERE item_type = 'file' AND status = $1`
	args := []any{typesdb.StatusApproved}
	if fileID != "" {
		query += " AND item_id = $2"
		args = append(args, fileID)
	}
	query += " ORDER BY approved_at DESC, id"

	rows, err := database.Query(ctx, tables.AccessRequests, query, args...)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	out := map[string][]typesdb.AccessRequest{}
	for rows.Next() {
		var r typesdb.AccessRequest
		if err := rows.Scan(&r.ID, &r.UserEmail, &r.ItemID, &r.ItemType, &r.ItemName, &r.AccessTypes,
			&r.Status, &r.RequestedAt, &r.ApprovedAt, &r.ApprovedBy); err != nil {
			return nil, apperrors.Database(err)
		}
		out[r.ItemID] = append(out[r.ItemID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return out, nil
}

func scanFileRow(rows *db.Rows) (FileRow, error) {
	var r FileRow
	f := &r.File
	err := rows.Scan(&f.ID, &f.FolderID, &f.FileName, &f.BlobKey, &f.FileURL, &f.FileSize, &f.FileType,
		&f.UploadedBy, &f.UploadedAt, &f.ViewsCount, &f.DownloadsCount, &f.SharesCount, &r.FolderName)
	return r, err
}

// FilesReport lists every file with its counters, newest upload first.
func FilesReport(ctx context.Context, database *db.DB) ([]FileRow, error) {
	rows, err := database.Query(ctx, tables.Files, `
		SELECT `+fileReportColumns+`
		FROM `+tables.Files+` f
		LEFT JOIN `+tables.Folders+` fo ON f.folder_id = fo.id
		ORDER BY f.uploaded_at DESC, f.id`)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	out := []FileRow{}
	for rows.Next() {
		r, err := scanFileRow(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.Database(err)
		}
		out = append(out, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, apperrors.Database(err)
	}

	shares, err := approvedShares(ctx, database, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Shares = shares[out[i].ID]
		if out[i].Shares == nil {
			out[i].Shares = []typesdb.AccessRequest{}
		}
	}
	return out, nil
}

// ShareReport lists files that have been shared at least once, most shared
// first.
func ShareReport(ctx context.Context, database *db.DB) ([]SharedFileRow, error) {
	rows, err := database.Query(ctx, tables.Files, `
		SELECT `+fileReportColumns+`,
			CAST(COUNT(DISTINCT ar.user_email) AS BIGINT) AS share_count,
			MAX(ar.approved_at) AS last_shared_at
		FROM `+tables.Files+` f
		LEFT JOIN `+tables.Folders+` fo ON f.folder_id = fo.id
		LEFT JOIN `+tables.AccessRequests+` ar
			ON ar.item_id = f.id AND ar.item_type = 'file' AND ar.status = 'approved'
		WHERE f.shares_count > 0
		GROUP BY f.id, f.folder_id, f.file_name, f.blob_key, f.file_url, f.file_size, f.file_type,
			f.uploaded_by, f.uploaded_at, f.views_count, f.downloads_count, f.shares_count, fo.name
		ORDER BY share_count DESC, last_shared_at DESC NULLS LAST, f.id`)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	out := []SharedFileRow{}
	for rows.Next() {
		var r SharedFileRow
		f := &r.File
		if err := rows.Scan(&f.ID, &f.FolderID, &f.FileName, &f.BlobKey, &f.FileURL, &f.FileSize, &f.FileType,
			&f.UploadedBy, &f.UploadedAt, &f.ViewsCount, &f.DownloadsCount, &f.SharesCount, &r.FolderName,
			&r.ShareCount, &r.LastSharedAt); err != nil {
			rows.Close()
			return nil, apperrors.Database(err)
		}
		out = append(out, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, apperrors.Database(err)
	}

	shares, err := approvedShares(ctx, database, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Shares = shares[out[i].ID]
		if out[i].Shares == nil {
			out[i].Shares = []typesdb.AccessRequest{}
		}
	}
	return out, nil
}

// FileActivityReport returns a file with its approved shares, a per type
// breakdown of them, and the activity log recorded against it.
func FileActivityReport(ctx context.Context, database *db.DB, fileID string) (*FileActivity, error) {
	file, err := files.ScanRow(database.QueryRow(ctx, "SELECT "+files.Columns+" FROM "+tables.Files+" WHERE id = $1", fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("File not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}

	shares, err := approvedShares(ctx, database, fileID)
	if err != nil {
		return nil, err
	}
	res := &FileActivity{
		File:             file,
		ShareActivity:    shares[fileID],
		AccessTypeCounts: map[string]int{},
		ViewsCount:       file.ViewsCount,
		DownloadsCount:   file.DownloadsCount,
	}
	if res.ShareActivity == nil {
		res.ShareActivity = []typesdb.AccessRequest{}
	}
	users := map[string]bool{}
	for _, s := range res.ShareActivity {
		users[s.UserEmail] = true
		for _, t := range access.ParseTypes(s.AccessTypes) {
			res.AccessTypeCounts[t]++
		}
	}
	res.SharesCount = len(users)

	res.Logs, err = activity.NewLogger(database).ForResource(ctx, fileID, ActivityLimit)
	if err != nil {
		return nil, err
	}
	return res, nil
}
