package reports

import (
	"context"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()
	database := dbtest.Open(t)

	exec := func(query string, args ...any) {
		t.Helper()
		_, err := database.Exec(ctx, query, args...)
		require.NoError(t, err)
	}
	exec("INSERT INTO folders (id, name, created_by, created_at) VALUES ('D1', 'Deals', 'root@room.io', $1)", base)
	for i, f := range []struct {
		id, name                 string
		views, downloads, shares int64
	}{
		{"F1", "q1.pdf", 4, 1, 2},
		{"F2", "q2.pdf", 0, 0, 1},
		{"F3", "q3.pdf", 7, 3, 0},
	} {
		exec(`INSERT INTO files (id, folder_id, file_name, file_size, file_type, uploaded_by, uploaded_at,
				views_count, downloads_count, shares_count)
			VALUES ($1, 'D1', $2, 10, 'application/pdf', 'root@room.io', $3, $4, $5, $6)`,
			f.id, f.name, base.Add(time.Duration(i)*time.Hour), f.views, f.downloads, f.shares)
	}

	for i, r := range []struct {
		id, user, item, types, status string
	}{
		{"R1", "ann@room.io", "F1", "VIEW", "approved"},
		{"R2", "ann@room.io", "F1", "DOWNLOAD", "approved"},
		{"R3", "bob@room.io", "F1", "VIEW,COMMENT", "approved"},
		{"R4", "bob@room.io", "F2", "VIEW", "approved"},
		{"R5", "cat@room.io", "F3", "VIEW", "rejected"},
	} {
		at := base.Add(time.Duration(i+10) * time.Hour)
		var approvedAt any
		if r.status == "approved" {
			approvedAt = at
		}
		exec(`INSERT INTO access_requests (id, user_email, item_id, item_type, item_name, access_types, status,
				requested_at, approved_at, approved_by)
			VALUES ($1, $2, $3, 'file', 'x', $4, $5, $6, $7, 'root@room.io')`,
			r.id, r.user, r.item, r.types, r.status, at, approvedAt)
	}
	return database
}

func TestFilesReport(t *testing.T) {
	database := seed(t)
	rows, err := FilesReport(context.Background(), database)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "F3", rows[0].ID, "newest upload first")
	assert.Equal(t, "Deals", rows[0].FolderName)
	assert.Equal(t, int64(7), rows[0].ViewsCount)
	assert.Empty(t, rows[0].Shares, "rejected requests are not shares")

	assert.Equal(t, "F1", rows[2].ID)
	require.Len(t, rows[2].Shares, 3)
	assert.Equal(t, "R3", rows[2].Shares[0].ID, "latest approval first")
}

func TestShareReport(t *testing.T) {
	database := seed(t)
	rows, err := ShareReport(context.Background(), database)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "F1", rows[0].ID)
	assert.Equal(t, int64(2), rows[0].ShareCount)
	require.NotNil(t, rows[0].LastSharedAt)
	assert.True(t, base.Add(12*time.Hour).Equal(*rows[0].LastSharedAt))
	assert.Len(t, rows[0].Shares, 3)

	assert.Equal(t, "F2", rows[1].ID)
	assert.Equal(t, int64(1), rows[1].ShareCount)
}

func TestFileActivityReport(t *testing.T) {
	ctx := context.Background()
	database := seed(t)
	activity.Record(ctx, database, activity.Entry{UserEmail: "ann@room.io", Action: "view_file", ResourceID: "F1", ResourceType: "file"})
	activity.Record(ctx, database, activity.Entry{UserEmail: "ann@room.io", Action: "view_file", ResourceID: "F2", ResourceType: "file"})

	res, err := FileActivityReport(ctx, database, "F1")
	require.NoError(t, err)
	assert.Equal(t, "q1.pdf", res.File.FileName)
	assert.Equal(t, 2, res.SharesCount)
	assert.Equal(t, map[string]int{"VIEW": 2, "DOWNLOAD": 1, "COMMENT": 1}, res.AccessTypeCounts)
	assert.Equal(t, int64(4), res.ViewsCount)
	assert.Equal(t, int64(1), res.DownloadsCount)
	require.Len(t, res.Logs, 1)
	assert.Equal(t, "view_file", res.Logs[0].Action)

	res, err = FileActivityReport(ctx, database, "F3")
	require.NoError(t, err)
	assert.Zero(t, res.SharesCount)
	assert.Empty(t, res.ShareActivity)

	_, err = FileActivityReport(ctx, database, "missing")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}
