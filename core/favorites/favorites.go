package favorites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// AddFavoriteRequest is the body of POST /api/favorites
type AddFavoriteRequest struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
}

type AddFavoriteResponse struct {
	ID       string `json:"id"`
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
}

// ListFavorites returns the caller's favorites with the item's name and
// size joined in. Folders also carry their file count.
func ListFavorites(ctx context.Context, database *db.DB, caller *auth.Claims) ([]typesdb.Favorite, error) {
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	rows, err := database.Query(ctx, tables.Favorites, `
		WITH folder_stats AS (
			SELECT folder_id, COUNT(*) AS file_count, SUM(file_size) AS total_size
			FROM `+tables.Files+`
			GROUP BY folder_id
		)
		SELECT fav.id, fav.user_email, fav.item_id, fav.item_type, fav.created_at,
			COALESCE(CASE WHEN fav.item_type = 'folder' THEN f.name ELSE fi.file_name END, ''),
			CASE WHEN fav.item_type = 'folder' THEN CAST(COALESCE(fs.file_count, 0) AS BIGINT) END,
			CASE WHEN fav.item_type = 'folder' THEN CAST(COALESCE(fs.total_size, 0) AS BIGINT) ELSE fi.file_size END,
			fi.file_type,
			fi.folder_id
		FROM `+tables.Favorites+` fav
		LEFT JOIN `+tables.Folders+` f ON fav.item_type = 'folder' AND fav.item_id = f.id
		LEFT JOIN folder_stats fs ON fs.folder_id = f.id
		LEFT JOIN `+tables.Files+` fi ON fav.item_type = 'file' AND fav.item_id = fi.id
		WHERE fav.user_email = $1
		ORDER BY fav.created_at DESC, fav.id`,
		caller.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	defer rows.Close()

	favs := []typesdb.Favorite{}
	for rows.Next() {
		var f typesdb.Favorite
		if err := rows.Scan(&f.ID, &f.UserEmail, &f.ItemID, &f.ItemType, &f.CreatedAt,
			&f.ItemName, &f.FileCount, &f.SizeBytes, &f.FileType, &f.ParentFolderID); err != nil {
			return nil, apperrors.Database(err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Database(err)
	}
	return favs, nil
}

// AddFavorite marks an item as a favorite. Adding it again refreshes the
// entry instead of duplicating it.
func AddFavorite(ctx context.Context, database *db.DB, caller *auth.Claims, req AddFavoriteRequest) (*AddFavoriteResponse, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	if req.ItemID == "" || req.ItemType == "" {
		return nil, apperrors.Invalid("itemId and itemType are required")
	}
	if req.ItemType != typesdb.ItemTypeFile && req.ItemType != typesdb.ItemTypeFolder {
		return nil, apperrors.Invalid("Invalid itemType %q", req.ItemType)
	}
	if caller == nil || caller.Email == "" {
		return nil, apperrors.Invalid("User email missing")
	}

	_, err := database.Exec(ctx, `
		INSERT INTO `+tables.Favorites+` (id, user_email, item_id, item_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_email, item_id, item_type) DO UPDATE SET created_at = EXCLUDED.created_at`,
		ids.New(), caller.Email, req.ItemID, req.ItemType, time.Now().UTC())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	var id string
	err = database.QueryRow(ctx,
		"SELECT id FROM "+tables.Favorites+" WHERE user_email = $1 AND item_id = $2 AND item_type = $3",
		caller.Email, req.ItemID, req.ItemType).Scan(&id)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "add_favorite",
		Description:  fmt.Sprintf("Added %s to favorites", req.ItemID),
		ResourceID:   req.ItemID,
		ResourceType: req.ItemType,
	})
	return &AddFavoriteResponse{ID: id, ItemID: req.ItemID, ItemType: req.ItemType}, nil
}

// RemoveFavorite drops the caller's favorite for an item. Removing a
// favorite that does not exist is not an error.
func RemoveFavorite(ctx context.Context, database *db.DB, caller *auth.Claims, itemID, itemType string) (string, error) {
	if itemID == "" || itemType == "" {
		return "", apperrors.Invalid("itemId and type are required")
	}
	if caller == nil || caller.Email == "" {
		return "", apperrors.Invalid("User email missing")
	}

	_, err := database.Exec(ctx,
		"DELETE FROM "+tables.Favorites+" WHERE user_email = $1 AND item_id = $2 AND item_type = $3",
		caller.Email, itemID, itemType)
	if err != nil {
		return "", apperrors.Database(err)
	}

	activity.Record(ctx, database, activity.Entry{
		Action:       "remove_favorite",
		Description:  fmt.Sprintf("Removed %s from favorites", itemID),
		ResourceID:   itemID,
		ResourceType: itemType,
	})
	return "Removed from favorites", nil
}
