package tables

type FoldersTable struct{}

func (t *FoldersTable) Name() string {
	return Folders
}

func (t *FoldersTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		name VARCHAR NOT NULL,
		created_by VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	`
}

type FilesTable struct{}

func (t *FilesTable) Name() string {
	return Files
}

func (t *FilesTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		folder_id VARCHAR NOT NULL,
		file_name VARCHAR NOT NULL,
		blob_key VARCHAR NOT NULL DEFAULT '',
		file_url VARCHAR NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		file_type VARCHAR NOT NULL DEFAULT '',
		uploaded_by VARCHAR NOT NULL,
		uploaded_at TIMESTAMP NOT NULL,
		views_count BIGINT NOT NULL DEFAULT 0,
		downloads_count BIGINT NOT NULL DEFAULT 0,
		shares_count BIGINT NOT NULL DEFAULT 0
	`
}

type FileCommentsTable struct{}

func (t *FileCommentsTable) Name() string {
	return FileComments
}

func (t *FileCommentsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		file_id VARCHAR NOT NULL,
		user_email VARCHAR NOT NULL,
		comment VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	`
}

// TrashTable keeps the union of file and folder columns; the ones that do
// not apply to an entry's item_type are NULL.
type TrashTable struct{}

func (t *TrashTable) Name() string {
	return Trash
}

func (t *TrashTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		item_type VARCHAR NOT NULL CHECK(item_type IN ('file', 'folder')),
		item_name VARCHAR NOT NULL,
		deleted_by VARCHAR NOT NULL,
		deleted_at TIMESTAMP NOT NULL,
		restored BOOLEAN NOT NULL DEFAULT FALSE,
		folder_id VARCHAR,
		blob_key VARCHAR,
		file_url VARCHAR,
		file_size BIGINT,
		file_type VARCHAR,
		uploaded_by VARCHAR,
		uploaded_at TIMESTAMP,
		created_by VARCHAR,
		created_at TIMESTAMP
	`
}

type FavoritesTable struct{}

func (t *FavoritesTable) Name() string {
	return Favorites
}

func (t *FavoritesTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		user_email VARCHAR NOT NULL,
		item_id VARCHAR NOT NULL,
		item_type VARCHAR NOT NULL CHECK(item_type IN ('file', 'folder')),
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_email, item_id, item_type)
	`
}

type NotificationsTable struct{}

func (t *NotificationsTable) Name() string {
	return Notifications
}

func (t *NotificationsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		user_email VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		body VARCHAR NOT NULL DEFAULT '',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	`
}

type UserLogsTable struct{}

func (t *UserLogsTable) Name() string {
	return UserLogs
}

func (t *UserLogsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		user_email VARCHAR,
		user_name VARCHAR,
		role VARCHAR,
		action VARCHAR NOT NULL,
		description VARCHAR,
		resource_id VARCHAR,
		resource_type VARCHAR,
		ip_address VARCHAR,
		user_agent VARCHAR,
		meta VARCHAR,
		created_at TIMESTAMP NOT NULL
	`
}

type OrganizationsTable struct{}

func (t *OrganizationsTable) Name() string {
	return Organizations
}

func (t *OrganizationsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		organization_name VARCHAR NOT NULL,
		email VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		phone VARCHAR NOT NULL DEFAULT '',
		website VARCHAR NOT NULL DEFAULT '',
		address VARCHAR NOT NULL DEFAULT '',
		has_active_plan BOOLEAN NOT NULL DEFAULT FALSE,
		plan_type VARCHAR,
		plan_start_date TIMESTAMP,
		plan_end_date TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	`
}

type PaymentsTable struct{}

func (t *PaymentsTable) Name() string {
	return Payments
}

func (t *PaymentsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		organization_id VARCHAR NOT NULL,
		gateway_order_id VARCHAR NOT NULL,
		gateway_payment_id VARCHAR,
		amount BIGINT NOT NULL,
		currency VARCHAR NOT NULL,
		plan_type VARCHAR NOT NULL,
		plan_duration_months INTEGER NOT NULL,
		status VARCHAR NOT NULL CHECK(status IN ('created', 'paid', 'failed')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	`
}

type UserStorageTable struct{}

func (t *UserStorageTable) Name() string {
	return UserStorage
}

func (t *UserStorageTable) Schema() string {
	return `
		user_email VARCHAR NOT NULL PRIMARY KEY,
		total_quota_mb DOUBLE NOT NULL DEFAULT 5000,
		used_mb DOUBLE NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	`
}

// StorageFilesTable holds items a user saved into their storage. Files
// saved as part of a folder point at the folder row through parent_ref.
type StorageFilesTable struct{}

func (t *StorageFilesTable) Name() string {
	return StorageFiles
}

func (t *StorageFilesTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		user_email VARCHAR NOT NULL,
		item_id VARCHAR NOT NULL,
		item_name VARCHAR NOT NULL,
		item_type VARCHAR NOT NULL DEFAULT 'file' CHECK(item_type IN ('file', 'folder')),
		file_size_mb DOUBLE NOT NULL,
		storage_ref VARCHAR NOT NULL UNIQUE,
		parent_ref VARCHAR,
		added_at TIMESTAMP NOT NULL
	`
}
