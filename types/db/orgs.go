package db

import "time"

type Organization struct {
	ID               string     `json:"id" db:"id"`
	OrganizationName string     `json:"organization_name" db:"organization_name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Phone            string     `json:"phone" db:"phone"`
	Website          string     `json:"website" db:"website"`
	Address          string     `json:"address" db:"address"`
	HasActivePlan    bool       `json:"has_active_plan" db:"has_active_plan"`
	PlanType         *string    `json:"plan_type" db:"plan_type"`
	PlanStartDate    *time.Time `json:"plan_start_date" db:"plan_start_date"`
	PlanEndDate      *time.Time `json:"plan_end_date" db:"plan_end_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Payment statuses.
const (
	PaymentCreated = "created"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment amounts are in the currency's minor unit.
type Payment struct {
	ID                 string    `json:"id" db:"id"`
	OrganizationID     string    `json:"organization_id" db:"organization_id"`
	GatewayOrderID     string    `json:"gateway_order_id" db:"gateway_order_id"`
	GatewayPaymentID   *string   `json:"gateway_payment_id" db:"gateway_payment_id"`
	Amount             int64     `json:"amount" db:"amount"`
	Currency           string    `json:"currency" db:"currency"`
	PlanType           string    `json:"plan_type" db:"plan_type"`
	PlanDurationMonths int       `json:"plan_duration_months" db:"plan_duration_months"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}
