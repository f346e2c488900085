package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/db/dbtest"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func TestUnconfiguredMailerReportsFailure(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{})
	res := m.Send(context.Background(), "a@x.io", "hi", "<p>hi</p>")
	assert.False(t, res.Success)
	assert.Equal(t, "Mailer not configured", res.Error)
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, User: "bot@x.io", Password: "pw"})

	var gotAddr, gotFrom string
	var gotMsg []byte
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotMsg = addr, from, msg
		return nil
	}
	res := m.Send(context.Background(), "a@x.io", "Access Approved\r\nBcc: x", "<p>ok</p>")
	require.True(t, res.Success)
	assert.NotEmpty(t, res.MessageID)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@x.io", gotFrom)
	assert.Contains(t, string(gotMsg), "Subject: Access Approved  Bcc: x\r\n")
	assert.True(t, strings.HasSuffix(string(gotMsg), "<p>ok</p>"))

	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay refused") }
	res = m.Send(context.Background(), "a@x.io", "s", "b")
	assert.False(t, res.Success)
	assert.Equal(t, "relay refused", res.Error)
}

func TestRenderEscapes(t *testing.T) {
	html, err := Render(TplAccessDecision, map[string]any{
		"accessTypes": "VIEW,DOWNLOAD", "itemName": "<q3>.pdf", "status": "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Your request for VIEW,DOWNLOAD access to &lt;q3&gt;.pdf has been approved.</p>", html)

	_, err = Render("nope", nil)
	assert.Error(t, err)
}

func TestHubPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	ch, stop := hub.Subscribe("a@x.io")
	assert.Equal(t, 1, hub.Subscribers("a@x.io"))

	hub.Publish(typesdb.Notification{ID: "1", UserEmail: "b@x.io"})
	hub.Publish(typesdb.Notification{ID: "2", UserEmail: "a@x.io"})
	assert.Equal(t, "2", (<-ch).ID)

	stop()
	stop()
	assert.Zero(t, hub.Subscribers("a@x.io"))
	_, open := <-ch
	assert.False(t, open)
}

func TestNotifierStoresAndStreams(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	hub := NewHub()
	notifier := NewNotifier(database, hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "a@x.io")
	}))
	defer srv.Close()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Subscribers("a@x.io") == 1 }, time.Second, 5*time.Millisecond)

	created, err := notifier.Create(ctx, "a@x.io", "Access Approved: q3.pdf", "Your request for VIEW has been approved.")
	require.NoError(t, err)

	var got typesdb.Notification
	require.NoError(t, wsjson.Read(dialCtx, conn, &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Access Approved: q3.pdf", got.Title)

	var count int64
	require.NoError(t, database.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_email = $1 AND is_read = FALSE", "a@x.io").Scan(&count))
	assert.Equal(t, int64(1), count)
}
