package trash_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/core/folders"
	"github.com/Voltaic314/DataRoom/core/trash"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = &auth.Claims{Email: "root@room.io", Role: "admin"}

type failingStore struct {
	blob.Store
	deleted []string
}

func (f *failingStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return errors.New("bucket unreachable")
}

func TestRestoreAndPermanentDelete(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	store := blob.NewMemoryStore()
	fileSvc := files.NewService(database, store, 0)

	folder, err := folders.CreateFolder(ctx, database, admin, folders.CreateFolderRequest{Name: "Deals"})
	require.NoError(t, err)
	keep, err := fileSvc.Upload(ctx, admin, files.UploadRequest{FolderID: folder.ID, FileName: "keep.pdf", Size: 3, Body: strings.NewReader("pdf")})
	require.NoError(t, err)
	drop, err := fileSvc.Upload(ctx, admin, files.UploadRequest{FolderID: folder.ID, FileName: "drop.pdf", Size: 3, Body: strings.NewReader("pdf")})
	require.NoError(t, err)

	_, err = fileSvc.Delete(ctx, admin, keep.ID)
	require.NoError(t, err)
	_, err = fileSvc.Delete(ctx, admin, drop.ID)
	require.NoError(t, err)
	_, err = folders.DeleteFolder(ctx, database, admin, folder.ID)
	require.NoError(t, err)

	entries, err := trash.List(ctx, database)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, folder.ID, entries[0].ID, "most recently deleted first")
	assert.Equal(t, "folder", entries[0].ItemType)
	assert.Nil(t, entries[0].BlobKey)

	// restore the folder, then one file back into it
	msg, err := trash.Restore(ctx, database, admin, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Item restored", msg)
	_, err = trash.Restore(ctx, database, admin, keep.ID)
	require.NoError(t, err)

	restored, err := fileSvc.Get(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, restored.FolderID)
	assert.Equal(t, "keep.pdf", restored.FileName)
	assert.Equal(t, int64(3), restored.FileSize)
	assert.Equal(t, keep.ID, restored.ID)

	_, err = trash.Restore(ctx, database, admin, keep.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	// permanent delete removes the blob
	msg, err = trash.PermanentDelete(ctx, database, store, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Item permanently deleted", msg)
	assert.False(t, store.Has(blob.Key(folder.ID, "drop.pdf")))
	assert.True(t, store.Has(blob.Key(folder.ID, "keep.pdf")))

	entries, err = trash.List(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = trash.PermanentDelete(ctx, database, store, drop.ID)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestPermanentDeleteSurvivesBlobFailure(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	fileSvc := files.NewService(database, blob.NewMemoryStore(), 0)

	folder, err := folders.CreateFolder(ctx, database, admin, folders.CreateFolderRequest{Name: "Deals"})
	require.NoError(t, err)
	f, err := fileSvc.Upload(ctx, admin, files.UploadRequest{FolderID: folder.ID, FileName: "a.txt", Size: 1, Body: strings.NewReader("a")})
	require.NoError(t, err)
	_, err = fileSvc.Delete(ctx, admin, f.ID)
	require.NoError(t, err)

	failing := &failingStore{}
	_, err = trash.PermanentDelete(ctx, database, failing, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{folder.ID + "/a.txt"}, failing.deleted)
}

func TestRestoreRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	// the CHECK constraint only admits file and folder, so drop it for this row
	_, err := database.Exec(ctx, "CREATE TABLE trash_tmp AS SELECT * FROM trash")
	require.NoError(t, err)
	_, err = database.Exec(ctx, "DROP TABLE trash")
	require.NoError(t, err)
	_, err = database.Exec(ctx, "ALTER TABLE trash_tmp RENAME TO trash")
	require.NoError(t, err)
	_, err = database.Exec(ctx, `INSERT INTO trash (id, item_type, item_name, deleted_by, deleted_at, restored)
		VALUES ('X', 'drive', 'odd', 'root@room.io', TIMESTAMP '2024-01-01 00:00:00', FALSE)`)
	require.NoError(t, err)

	_, err = trash.Restore(ctx, database, admin, "X")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}
