package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// ListRequest filters the activity log. From and To accept YYYY-MM-DD or
// RFC 3339; To is extended to the end of its day.
type ListRequest struct {
	User  string
	Q     string
	From  string
	To    string
	Page  int
	Limit int
}

type ListMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

type ListResponse struct {
	Data []typesdb.ActivityLog `json:"data"`
	Meta ListMeta              `json:"meta"`
}

// List returns matching rows newest first.
func (l *Logger) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(MaxLimit, max(1, limit))
	page := max(1, req.Page)

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if u := strings.TrimSpace(req.User); u != "" {
		p := arg(strings.ToLower(u))
		conds = append(conds, fmt.Sprintf("(LOWER(user_email) = %s OR LOWER(user_name) = %s)", p, p))
	}
	if q := strings.TrimSpace(req.Q); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(description) LIKE %s OR LOWER(action) LIKE %s OR LOWER(resource_id) LIKE %s OR LOWER(resource_type) LIKE %s)",
			p, p, p, p))
	}
	if from, ok := parseDate(req.From, false); ok {
		conds = append(conds, "created_at >= "+arg(from))
	}
	if to, ok := parseDate(req.To, true); ok {
		conds = append(conds, "created_at <= "+arg(to))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		logColumns, tables.UserLogs, where, limit, (page-1)*limit)

	logs, err := l.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &ListResponse{
		Data: logs,
		Meta: ListMeta{Page: page, Limit: limit, Count: len(logs)},
	}, nil
}

// ForResource returns the newest activity rows recorded against resourceID.
func (l *Logger) ForResource(ctx context.Context, resourceID string, limit int) ([]typesdb.ActivityLog, error) {
	if resourceID == "" {
		return nil, apperrors.Invalid("resource id is required")
	}
	limit = min(MaxLimit, max(1, limit))
	query := fmt.Sprintf("SELECT %s FROM %s WHERE resource_id = $1 ORDER BY created_at DESC LIMIT %d",
		logColumns, tables.UserLogs, limit)
	return l.query(ctx, query, resourceID)
}

func (l *Logger) query(ctx context.Context, query string, args ...any) ([]typesdb.ActivityLog, error) {
	rows, err := l.db.Query(ctx, tables.UserLogs, query, args...)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	logs := []typesdb.ActivityLog{}
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return logs, nil
}

func parseDate(raw string, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false
		}
	}
	t = t.UTC()
	if endOfDay {
		y, m, d := t.Date()
		t = time.Date(y, m, d, 23, 59, 59, 999_000_000, time.UTC)
	}
	return t, true
}
