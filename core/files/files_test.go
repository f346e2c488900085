package files

import (
	"context"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploader = &auth.Claims{Email: "ann@room.io", Role: "user", Name: "Ann"}

func setup(t *testing.T) (*Service, *db.DB, *blob.MemoryStore) {
	t.Helper()
	database := dbtest.Open(t)
	_, err := database.Exec(context.Background(),
		"INSERT INTO folders (id, name, created_by, created_at) VALUES ('D1', 'Deals', 'root@room.io', $1)", time.Now().UTC())
	require.NoError(t, err)

	store := blob.NewMemoryStore()
	svc := NewService(database, store, time.Hour)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, database, store
}

func upload(t *testing.T, svc *Service, name, body string) *UploadResponse {
	t.Helper()
	res, err := svc.Upload(context.Background(), uploader, UploadRequest{
		FolderID: "D1", FileName: name, Size: int64(len(body)), Body: strings.NewReader(body),
	})
	require.NoError(t, err)
	return res
}

func TestUpload(t *testing.T) {
	svc, _, store := setup(t)

	res := upload(t, svc, "q3.pdf", "%PDF-1.7")
	assert.Equal(t, "q3.pdf", res.FileName)
	assert.Equal(t, "application/pdf", res.Type)
	assert.Equal(t, int64(8), res.Size)
	assert.Equal(t, "memory://D1/q3.pdf", res.URL)
	assert.True(t, store.Has("D1/q3.pdf"))

	f, err := svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "D1/q3.pdf", f.BlobKey)
	assert.Equal(t, uploader.Email, f.UploadedBy)

	_, err = svc.Upload(context.Background(), uploader, UploadRequest{FolderID: "D1", FileName: "x"})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	_, err = svc.Upload(context.Background(), uploader, UploadRequest{
		FolderID: "nope", FileName: "x.txt", Body: strings.NewReader("x"),
	})
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestListPaginates(t *testing.T) {
	svc, _, _ := setup(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		upload(t, svc, name, name)
	}

	page1, err := svc.List(context.Background(), "D1", 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "c.txt", page1[0].FileName)
	assert.Equal(t, "b.txt", page1[1].FileName)

	page2, err := svc.List(context.Background(), "D1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "a.txt", page2[0].FileName)

	all, err := svc.List(context.Background(), "D1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := svc.List(context.Background(), "D2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, len(none))

	// a huge page must not wrap the offset back onto real rows
	far, err := svc.List(context.Background(), "D1", math.MaxInt, MaxPageSize)
	require.NoError(t, err)
	assert.Empty(t, far)
}

func TestViewAndDownloadCount(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)
	id := upload(t, svc, "deck.pptx", "slides").ID

	view, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.URL, "memory://D1/deck.pptx?expires="), view.URL)
	_, err = svc.View(ctx, id)
	require.NoError(t, err)

	dl, err := svc.Download(ctx, id)
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Object.Body)
	require.NoError(t, err)
	dl.Object.Body.Close()
	assert.Equal(t, "slides", string(body))
	assert.Equal(t, "deck.pptx", dl.FileName)

	f, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.ViewsCount)
	assert.Equal(t, int64(1), f.DownloadsCount)

	_, err = svc.View(ctx, "missing")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
	_, err = svc.Download(ctx, "missing")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestDownloadMissingBlobIsUpstreamError(t *testing.T) {
	ctx := context.Background()
	svc, _, store := setup(t)
	id := upload(t, svc, "gone.txt", "x").ID
	require.NoError(t, store.Delete(ctx, "D1/gone.txt"))

	_, err := svc.Download(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 502, apperrors.HTTPStatus(err))
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)
	id := upload(t, svc, "a.txt", "a").ID

	msg, err := svc.AddComment(ctx, uploader, id, "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, "Comment added successfully", msg)

	_, err = svc.AddComment(ctx, uploader, id, " ")
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	_, err = svc.AddComment(ctx, uploader, "missing", "hi")
	assert.Equal(t, 404, apperrors.HTTPStatus(err))

	comments, err := svc.Comments(ctx, id)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Comment)
	assert.Equal(t, uploader.Email, comments[0].UserEmail)
}

func TestDeleteMovesToTrash(t *testing.T) {
	ctx := context.Background()
	svc, database, store := setup(t)
	id := upload(t, svc, "a.txt", "a").ID

	msg, err := svc.Delete(ctx, uploader, id)
	require.NoError(t, err)
	assert.Equal(t, "File moved to trash", msg)

	_, err = svc.Get(ctx, id)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
	assert.True(t, store.Has("D1/a.txt"), "blob stays until permanent delete")

	var itemType, deletedBy, blobKey string
	require.NoError(t, database.QueryRow(ctx, "SELECT item_type, deleted_by, blob_key FROM trash WHERE id = $1", id).
		Scan(&itemType, &deletedBy, &blobKey))
	assert.Equal(t, "file", itemType)
	assert.Equal(t, uploader.Email, deletedBy)
	assert.Equal(t, "D1/a.txt", blobKey)

	_, err = svc.Delete(ctx, uploader, id)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}
