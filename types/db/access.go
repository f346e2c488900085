package db

import "time"

// Access request statuses. Approved and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AccessRequest is one row of access_requests. AccessTypes is stored
// comma-joined, e.g. "VIEW,DOWNLOAD".
type AccessRequest struct {
	ID          string     `json:"id" db:"id"`
	UserEmail   string     `json:"user_email" db:"user_email"`
	ItemID      string     `json:"item_id" db:"item_id"`
	ItemType    string     `json:"item_type" db:"item_type"`
	ItemName    string     `json:"item_name" db:"item_name"`
	AccessTypes string     `json:"access_types" db:"access_types"`
	Status      string     `json:"status" db:"status"`
	RequestedAt time.Time  `json:"requested_at" db:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at" db:"approved_at"`
	ApprovedBy  *string    `json:"approved_by" db:"approved_by"`
}
