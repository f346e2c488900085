package db

import "time"

type User struct {
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Profile struct {
	UserEmail        string     `json:"user_email" db:"user_email"`
	CompanyName      string     `json:"company_name" db:"company_name"`
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Address          string     `json:"address" db:"address"`
	ContactNo        string     `json:"contact_no" db:"contact_no"`
	ExpiryDate       *time.Time `json:"expiry_date" db:"expiry_date"`
	LogoURL          string     `json:"logo_url" db:"logo_url"`
	AvailableSpaceMB int64      `json:"available_space_mb" db:"available_space_mb"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type Tag struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Group members are stored as a JSON array of emails.
type Group struct {
	ID        string    `json:"id" db:"id"`
	GroupName string    `json:"group_name" db:"group_name"`
	Members   []string  `json:"members" db:"members"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OTP purposes.
const (
	OTPLogin         = "login"
	OTPPasswordReset = "password_reset"
)

type OTPCode struct {
	Purpose   string    `db:"purpose"`
	Email     string    `db:"email"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ActivityLog is one row of user_logs. Meta holds a JSON document.
type ActivityLog struct {
	ID           string    `json:"id" db:"id"`
	UserEmail    string    `json:"user_email" db:"user_email"`
	UserName     string    `json:"user_name" db:"user_name"`
	Role         string    `json:"role" db:"role"`
	Action       string    `json:"action" db:"action"`
	Description  string    `json:"description" db:"description"`
	ResourceID   string    `json:"resource_id" db:"resource_id"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	IPAddress    string    `json:"ip_address" db:"ip_address"`
	UserAgent    string    `json:"user_agent" db:"user_agent"`
	Meta         string    `json:"meta" db:"meta"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
