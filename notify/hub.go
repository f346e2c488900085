package notify

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const subscriberBuffer = 16

// Hub fans notifications out to the live connections of each user.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan typesdb.Notification]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan typesdb.Notification]struct{})}
}

// Subscribe registers a listener for email. Call the returned func to stop.
func (h *Hub) Subscribe(email string) (<-chan typesdb.Notification, func()) {
	ch := make(chan typesdb.Notification, subscriberBuffer)
	h.mu.Lock()
	if h.subs[email] == nil {
		h.subs[email] = make(map[chan typesdb.Notification]struct{})
	}
	h.subs[email][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[email], ch)
			if len(h.subs[email]) == 0 {
				delete(h.subs, email)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers n to every subscriber of n.UserEmail. Slow subscribers
// miss the message rather than block the publisher.
func (h *Hub) Publish(n typesdb.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[n.UserEmail] {
		select {
		case ch <- n:
		default:
			log.Printf("⚠️  Dropping live notification %s for slow subscriber %s", n.ID, n.UserEmail)
		}
	}
}

// Subscribers returns the number of live listeners for email.
func (h *Hub) Subscribers(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[email])
}

// ServeWS upgrades the request and streams email's notifications as JSON
// until either side closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, email string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("❌ Websocket upgrade failed for %s: %v", email, err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, unsubscribe := h.Subscribe(email)
	defer unsubscribe()

	// we never read; CloseRead handles control frames and reports disconnects
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(wctx, conn, n)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
