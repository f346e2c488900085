package notifications

import (
	"context"
	"testing"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db/dbtest"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationInbox(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	notifier := notify.NewNotifier(database, notify.NewHub())
	ann := &auth.Claims{Email: "ann@room.io"}
	bob := &auth.Claims{Email: "bob@room.io"}

	first, err := notifier.Create(ctx, ann.Email, "Added to Group: Legal", "You have been added to group Legal.")
	require.NoError(t, err)
	second, err := notifier.Create(ctx, ann.Email, "Access Approved: q3.pdf", "Your request for VIEW has been approved.")
	require.NoError(t, err)
	bobs, err := notifier.Create(ctx, bob.Email, "Added to Group: Legal", "")
	require.NoError(t, err)

	_, err = List(ctx, database, &auth.Claims{})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	list, err := List(ctx, database, ann)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.False(t, list[0].IsRead)

	msg, err := MarkRead(ctx, database, ann, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marked read", msg)
	_, err = MarkRead(ctx, database, ann, bobs.ID)
	require.NoError(t, err)

	list, err = List(ctx, database, ann)
	require.NoError(t, err)
	assert.True(t, list[1].IsRead)
	bobList, err := List(ctx, database, bob)
	require.NoError(t, err)
	assert.False(t, bobList[0].IsRead, "cannot mark someone else's notification")

	msg, err = Delete(ctx, database, ann, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notification deleted", msg)
	list, err = List(ctx, database, ann)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	msg, err = ClearAll(ctx, database, ann)
	require.NoError(t, err)
	assert.Equal(t, "All notifications cleared", msg)
	list, err = List(ctx, database, ann)
	require.NoError(t, err)
	assert.Empty(t, list)

	bobList, err = List(ctx, database, bob)
	require.NoError(t, err)
	assert.Len(t, bobList, 1)
}
