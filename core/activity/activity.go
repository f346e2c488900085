// Package activity records who did what to which resource in user_logs.
package activity

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// Entry is one activity to record. Empty strings are stored as NULL.
type Entry struct {
	UserEmail    string
	UserName     string
	Role         string
	Action       string
	Description  string
	ResourceID   string
	ResourceType string
	IPAddress    string
	UserAgent    string
	Meta         map[string]any
}

// Logger writes activity rows through the user_logs write queue.
type Logger struct {
	db  *db.DB
	now func() time.Time
}

func NewLogger(database *db.DB) *Logger {
	return &Logger{db: database, now: time.Now}
}

// Record logs e through a Logger bound to database.
func Record(ctx context.Context, database *db.DB, e Entry) {
	NewLogger(database).Log(ctx, e)
}

const insertLog = `
	INSERT INTO ` + tables.UserLogs + ` (
		id, user_email, user_name, role, action, description,
		resource_id, resource_type, ip_address, user_agent, meta, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Log queues e. Failures surface in the gateway's flush log, never here.
func (l *Logger) Log(ctx context.Context, e Entry) {
	if l == nil || l.db == nil {
		return
	}
	if e.Action == "" {
		e.Action = "activity"
	}
	e = fromContext(ctx, e)
	meta := ""
	if len(e.Meta) > 0 {
		raw, err := json.Marshal(e.Meta)
		if err != nil {
			log.Printf("⚠️  Dropping unserialisable activity meta for %s: %v", e.Action, err)
		} else {
			meta = string(raw)
		}
	}
	l.db.QueueWrite(tables.UserLogs, insertLog,
		ids.NewULID(),
		nullable(e.UserEmail),
		nullable(e.UserName),
		nullable(e.Role),
		e.Action,
		nullable(e.Description),
		nullable(e.ResourceID),
		nullable(e.ResourceType),
		nullable(e.IPAddress),
		nullable(e.UserAgent),
		nullable(meta),
		l.now().UTC(),
	)
}

type clientKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// Middleware remembers the caller's address and user agent so entries
// logged deeper in the stack carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := clientInfo{ip: ClientIP(r), userAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, info)))
	})
}

// FromRequest fills the caller identity and client details of e from r
// where e leaves them empty.
func FromRequest(r *http.Request, e Entry) Entry {
	if e.IPAddress == "" {
		e.IPAddress = ClientIP(r)
	}
	if e.UserAgent == "" {
		e.UserAgent = r.UserAgent()
	}
	return fromContext(r.Context(), e)
}

func fromContext(ctx context.Context, e Entry) Entry {
	if c, ok := auth.FromContext(ctx); ok {
		if e.UserEmail == "" {
			e.UserEmail = c.Email
		}
		if e.UserName == "" {
			e.UserName = c.Name
		}
		if e.Role == "" {
			e.Role = c.Role
		}
	}
	if info, ok := ctx.Value(clientKey{}).(clientInfo); ok {
		if e.IPAddress == "" {
			e.IPAddress = info.ip
		}
		if e.UserAgent == "" {
			e.UserAgent = info.userAgent
		}
	}
	if e.UserName == "" && e.UserEmail != "" {
		e.UserName = strings.SplitN(e.UserEmail, "@", 2)[0]
	}
	return e
}

// ClientIP is the first X-Forwarded-For hop, else the remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanLog reads the columns selected by logColumns.
func scanLog(rows interface{ Scan(...any) error }) (typesdb.ActivityLog, error) {
	var entry typesdb.ActivityLog
	var email, name, role, desc, resID, resType, ip, ua, meta *string
	err := rows.Scan(&entry.ID, &email, &name, &role, &entry.Action, &desc,
		&resID, &resType, &ip, &ua, &meta, &entry.CreatedAt)
	if err != nil {
		return entry, err
	}
	entry.UserEmail = deref(email)
	entry.UserName = deref(name)
	entry.Role = deref(role)
	entry.Description = deref(desc)
	entry.ResourceID = deref(resID)
	entry.ResourceType = deref(resType)
	entry.IPAddress = deref(ip)
	entry.UserAgent = deref(ua)
	entry.Meta = deref(meta)
	return entry, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const logColumns = `id, user_email, user_name, role, action, description,
	resource_id, resource_type, ip_address, user_agent, meta, created_at`
