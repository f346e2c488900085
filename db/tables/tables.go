// Package tables declares the DataRoom schema. Each table exposes its name
// and column list; Migrations turns them into versioned schema steps.
package tables

import (
	"github.com/Voltaic314/DataRoom/db"
)

// Table is a relation the gateway manages
type Table interface {
	Name() string
	Schema() string
}

// Table names used in queries throughout the core packages.
const (
	AccessRequests = "access_requests"
	Users          = "users"
	Folders        = "folders"
	Files          = "files"
	FileComments   = "file_comments"
	Trash          = "trash"
	Favorites      = "favorites"
	Notifications  = "notifications"
	UserLogs       = "user_logs"
	Groups         = "user_groups"
	Tags           = "tags"
	Profiles       = "profiles"
	OTPCodes       = "otp_codes"
	Organizations  = "organizations"
	Payments       = "payments"
	UserStorage    = "user_storage"
	StorageFiles   = "storage_files"
)

// All returns every table in creation order.
func All() []Table {
	return []Table{
		&UsersTable{},
		&AccessRequestsTable{},
		&FoldersTable{},
		&FilesTable{},
		&FileCommentsTable{},
		&TrashTable{},
		&FavoritesTable{},
		&NotificationsTable{},
		&UserLogsTable{},
		&GroupsTable{},
		&TagsTable{},
		&ProfilesTable{},
		&OTPCodesTable{},
		&OrganizationsTable{},
		&PaymentsTable{},
	}
}

// StorageTables are the quota bookkeeping tables added by migration 3.
func StorageTables() []Table {
	return []Table{
		&UserStorageTable{},
		&StorageFilesTable{},
	}
}

// Migrations returns the schema history, oldest first.
func Migrations() []db.Migration {
	return []db.Migration{
		{
			Version: 1,
			Name:    "create tables",
			Up: func(tx *db.Tx) error {
				for _, t := range All() {
					if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS " + t.Name() + " (" + t.Schema() + ")"); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: 2,
			Name:    "lookup indexes",
			Up: func(tx *db.Tx) error {
				stmts := []string{
					"CREATE INDEX IF NOT EXISTS idx_access_requests_item ON " + AccessRequests + " (item_id, item_type)",
					"CREATE INDEX IF NOT EXISTS idx_access_requests_user ON " + AccessRequests + " (user_email)",
					"CREATE INDEX IF NOT EXISTS idx_files_folder ON " + Files + " (folder_id)",
					"CREATE INDEX IF NOT EXISTS idx_notifications_user ON " + Notifications + " (user_email)",
					"CREATE INDEX IF NOT EXISTS idx_user_logs_resource ON " + UserLogs + " (resource_id)",
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: 3,
			Name:    "storage quota and otp attempts",
			Up: func(tx *db.Tx) error {
				for _, t := range StorageTables() {
					if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS " + t.Name() + " (" + t.Schema() + ")"); err != nil {
						return err
					}
				}
				// live codes are short lived, so otp_codes is rebuilt rather than altered
				otp := &OTPCodesTable{}
				stmts := []string{
					"CREATE INDEX IF NOT EXISTS idx_storage_files_user ON " + StorageFiles + " (user_email)",
					"DROP TABLE IF EXISTS " + otp.Name(),
					"CREATE TABLE " + otp.Name() + " (" + otp.Schema() + ")",
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
