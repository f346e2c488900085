package tables

type AccessRequestsTable struct{}

func (t *AccessRequestsTable) Name() string {
	return AccessRequests
}

func (t *AccessRequestsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		user_email VARCHAR NOT NULL,
		item_id VARCHAR NOT NULL,
		item_type VARCHAR NOT NULL CHECK(item_type IN ('file', 'folder')),
		item_name VARCHAR NOT NULL,
		access_types VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'rejected')),
		requested_at TIMESTAMP NOT NULL,
		approved_at TIMESTAMP,
		approved_by VARCHAR
	`
}

type UsersTable struct{}

func (t *UsersTable) Name() string {
	return Users
}

func (t *UsersTable) Schema() string {
	return `
		email VARCHAR NOT NULL PRIMARY KEY,
		name VARCHAR NOT NULL DEFAULT '',
		password_hash VARCHAR NOT NULL DEFAULT '',
		role VARCHAR NOT NULL DEFAULT 'user' CHECK(role IN ('admin', 'user')),
		created_at TIMESTAMP NOT NULL
	`
}

type OTPCodesTable struct{}

func (t *OTPCodesTable) Name() string {
	return OTPCodes
}

func (t *OTPCodesTable) Schema() string {
	return `
		purpose VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		code VARCHAR NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (purpose, email)
	`
}

type ProfilesTable struct{}

func (t *ProfilesTable) Name() string {
	return Profiles
}

func (t *ProfilesTable) Schema() string {
	return `
		user_email VARCHAR NOT NULL PRIMARY KEY,
		company_name VARCHAR NOT NULL DEFAULT '',
		first_name VARCHAR NOT NULL DEFAULT '',
		last_name VARCHAR NOT NULL DEFAULT '',
		address VARCHAR NOT NULL DEFAULT '',
		contact_no VARCHAR NOT NULL DEFAULT '',
		expiry_date TIMESTAMP,
		logo_url VARCHAR NOT NULL DEFAULT '',
		available_space_mb BIGINT NOT NULL DEFAULT 2048,
		updated_at TIMESTAMP NOT NULL
	`
}

type TagsTable struct{}

func (t *TagsTable) Name() string {
	return Tags
}

func (t *TagsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		name VARCHAR NOT NULL,
		color VARCHAR NOT NULL DEFAULT '',
		created_by VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	`
}

type GroupsTable struct{}

func (t *GroupsTable) Name() string {
	return Groups
}

func (t *GroupsTable) Schema() string {
	return `
		id VARCHAR NOT NULL PRIMARY KEY,
		group_name VARCHAR NOT NULL,
		members VARCHAR NOT NULL DEFAULT '[]',
		created_by VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	`
}
