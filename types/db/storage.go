package db

import "time"

type Folder struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FolderSummary is a folder plus aggregates over its files.
type FolderSummary struct {
	Folder
	FileCount int64 `json:"file_count"`
	TotalSize int64 `json:"total_size"`
}

type File struct {
	ID             string    `json:"id" db:"id"`
	FolderID       string    `json:"folder_id" db:"folder_id"`
	FileName       string    `json:"file_name" db:"file_name"`
	BlobKey        string    `json:"blob_key" db:"blob_key"`
	FileURL        string    `json:"file_url" db:"file_url"`
	FileSize       int64     `json:"file_size" db:"file_size"`
	FileType       string    `json:"file_type" db:"file_type"`
	UploadedBy     string    `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt     time.Time `json:"uploaded_at" db:"uploaded_at"`
	ViewsCount     int64     `json:"views_count" db:"views_count"`
	DownloadsCount int64     `json:"downloads_count" db:"downloads_count"`
	SharesCount    int64     `json:"shares_count" db:"shares_count"`
}

type FileComment struct {
	ID        string    `json:"id" db:"id"`
	FileID    string    `json:"file_id" db:"file_id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TrashEntry snapshots a deleted file or folder so it can be restored.
// File-only and folder-only columns are nil for the other kind.
type TrashEntry struct {
	ID         string     `json:"id" db:"id"`
	ItemType   string     `json:"item_type" db:"item_type"`
	ItemName   string     `json:"item_name" db:"item_name"`
	DeletedBy  string     `json:"deleted_by" db:"deleted_by"`
	DeletedAt  time.Time  `json:"deleted_at" db:"deleted_at"`
	Restored   bool       `json:"restored" db:"restored"`
	FolderID   *string    `json:"folder_id" db:"folder_id"`
	BlobKey    *string    `json:"blob_key" db:"blob_key"`
	FileURL    *string    `json:"file_url" db:"file_url"`
	FileSize   *int64     `json:"file_size" db:"file_size"`
	FileType   *string    `json:"file_type" db:"file_type"`
	UploadedBy *string    `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt *time.Time `json:"uploaded_at" db:"uploaded_at"`
	CreatedBy  *string    `json:"created_by" db:"created_by"`
	CreatedAt  *time.Time `json:"created_at" db:"created_at"`
}

type Favorite struct {
	ID        string    `json:"id" db:"id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	ItemID    string    `json:"item_id" db:"item_id"`
	ItemType  string    `json:"item_type" db:"item_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// Joined from files/folders when listing.
	ItemName       string  `json:"item_name,omitempty"`
	FileCount      *int64  `json:"file_count,omitempty"`
	SizeBytes      *int64  `json:"size_bytes,omitempty"`
	FileType       *string `json:"file_type,omitempty"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
}

// StorageFile is one item saved into a user's storage. Files saved as part
// of a folder carry the folder row's storage_ref in ParentRef.
type StorageFile struct {
	ID         string    `json:"id" db:"id"`
	UserEmail  string    `json:"user_email" db:"user_email"`
	ItemID     string    `json:"item_id" db:"item_id"`
	ItemName   string    `json:"item_name" db:"item_name"`
	ItemType   string    `json:"item_type" db:"item_type"`
	FileSizeMB float64   `json:"file_size_mb" db:"file_size_mb"`
	StorageRef string    `json:"storage_ref" db:"storage_ref"`
	ParentRef  *string   `json:"parent_ref" db:"parent_ref"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}
