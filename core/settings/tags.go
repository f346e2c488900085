package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// DefaultTagColor is used when a tag is saved without a color.
const DefaultTagColor = "#10b981"

type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CreateTagResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

func (r TagRequest) normalize() (TagRequest, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, apperrors.Invalid("Tag name is required")
	}
	if r.Color = strings.TrimSpace(r.Color); r.Color == "" {
		r.Color = DefaultTagColor
	}
	return r, nil
}

func (s *Service) Tags(ctx context.Context) ([]typesdb.Tag, error) {
	rows, err := s.db.Query(ctx, tables.Tags,
		"SELECT id, name, color, created_by, created_at FROM "+tables.Tags+" ORDER BY created_at DESC, name")
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	tags := []typesdb.Tag{}
	for rows.Next() {
		var t typesdb.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, apperrors.Database(err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return tags, nil
}

// nameTaken reports whether another tag already uses name. Names compare
// case-insensitively.
func (s *Service) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		"SELECT CAST(COUNT(*) AS BIGINT) FROM "+tables.Tags+" WHERE LOWER(name) = LOWER($1) AND id <> $2",
		name, exceptID).Scan(&n)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return n > 0, nil
}

func (s *Service) CreateTag(ctx context.Context, caller *auth.Claims, req TagRequest) (*CreateTagResponse, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}
	if req, err = req.normalize(); err != nil {
		return nil, err
	}
	taken, err := s.nameTaken(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Duplicate("Tag name already exists")
	}

	id := ids.New()
	_, err = s.db.Exec(ctx,
		"INSERT INTO "+tables.Tags+" (id, name, color, created_by, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, req.Name, req.Color, email, s.now().UTC())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "create_tag",
		Description:  fmt.Sprintf("Created tag %q", req.Name),
		ResourceID:   id,
		ResourceType: "tag",
	})
	return &CreateTagResponse{Message: "Tag created successfully", ID: id, Name: req.Name, Color: req.Color}, nil
}

func (s *Service) UpdateTag(ctx context.Context, id string, req TagRequest) (string, error) {
	req, err := req.normalize()
	if err != nil {
		return "", err
	}
	taken, err := s.nameTaken(ctx, req.Name, id)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperrors.Duplicate("Tag name already exists")
	}

	res, err := s.db.Exec(ctx, "UPDATE "+tables.Tags+" SET name = $1, color = $2 WHERE id = $3", req.Name, req.Color, id)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", apperrors.NotFound("Tag not found")
	}

	activity.Record(ctx, s.db, activity.Entry{
		Action:       "update_tag",
		Description:  "Updated tag " + id,
		ResourceID:   id,
		ResourceType: "tag",
	})
	return "Tag updated successfully", nil
}

func (s *Service) DeleteTag(ctx context.Context, id string) (string, error) {
	if _, err := s.db.Exec(ctx, "DELETE FROM "+tables.Tags+" WHERE id = $1", id); err != nil {
		return "", apperrors.Database(err)
	}
	activity.Record(ctx, s.db, activity.Entry{
		Action:       "delete_tag",
		Description:  "Deleted tag " + id,
		ResourceID:   id,
		ResourceType: "tag",
	})
	return "Tag deleted successfully", nil
}
