// Package db holds the row types persisted by the gateway and the write-queue
// primitives shared between the db package and its callers.
package db

// WriteOp represents a queued SQL statement
type WriteOp struct {
	Query  string
	Params []any
}

// Batch represents a group of write operations flushed in one transaction
type Batch struct {
	Table string
	Ops   []WriteOp
}

// Item types shared by access requests, favorites and trash entries.
const (
	ItemTypeFile   = "file"
	ItemTypeFolder = "folder"
)

// Roles carried in users.role and in bearer tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
