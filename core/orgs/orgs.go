// Package orgs handles organization accounts: registration, sign-in gated
// on an active plan, and buying or renewing a plan through the payment
// gateway.
package orgs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	"github.com/Voltaic314/DataRoom/pkg/ids"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// PlanDurations maps a plan type to its length in months.
var PlanDurations = map[string]int{
	"monthly":   1,
	"quarterly": 3,
	"yearly":    12,
}

// Plan states reported by Login.
const (
	PlanActive       = "active"
	PlanExpired      = "expired"
	PlanNotPurchased = "not_purchased"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Config struct {
	KeyID     string
	KeySecret string
	Currency  string
}

type Service struct {
	db      *db.DB
	tokens  *auth.Tokens
	gateway Gateway
	cfg     Config
	now     func() time.Time
}

func NewService(database *db.DB, tokens *auth.Tokens, gateway Gateway, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Service{db: database, tokens: tokens, gateway: gateway, cfg: cfg, now: time.Now}
}

// Summary is the organization as returned to clients.
type Summary struct {
	ID               string     `json:"id"`
	OrganizationName string     `json:"organizationName"`
	Email            string     `json:"email"`
	HasActivePlan    bool       `json:"hasActivePlan"`
	PlanType         *string    `json:"planType,omitempty"`
	PlanStartDate    *time.Time `json:"planStartDate,omitempty"`
	PlanEndDate      *time.Time `json:"planEndDate,omitempty"`
}

type RegisterRequest struct {
	OrganizationName string `json:"organizationName"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Phone            string `json:"phone"`
	Website          string `json:"website"`
	Address          string `json:"address"`
}

type RegisterResponse struct {
	Message      string  `json:"message"`
	Organization Summary `json:"organization"`
}

// LoginResponse carries a token only when the plan is active. Otherwise
// RequiresPlan is set and PlanStatus says why.
type LoginResponse struct {
	Message      string  `json:"message"`
	Token        string  `json:"token,omitempty"`
	RequiresPlan bool    `json:"requiresPlan,omitempty"`
	PlanStatus   string  `json:"planStatus"`
	Organization Summary `json:"organization"`
}

// CreateOrderRequest takes Amount in major units, e.g. 499.00.
type CreateOrderRequest struct {
	OrganizationID string  `json:"organizationId"`
	PlanType       string  `json:"planType"`
	Amount         float64 `json:"amount"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type VerifyPaymentRequest struct {
	OrderID        string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	OrganizationID string `json:"organizationId"`
}

type VerifyPaymentResponse struct {
	Message      string  `json:"message"`
	Organization Summary `json:"organization"`
}

const orgColumns = `id, organization_name, email, password_hash, phone, website, address,
	has_active_plan, plan_type, plan_start_date, plan_end_date, created_at, updated_at`

func (s *Service) load(ctx context.Context, where string, arg any) (*typesdb.Organization, error) {
	var o typesdb.Organization
	err := s.db.QueryRow(ctx, "SELECT "+orgColumns+" FROM "+tables.Organizations+" WHERE "+where+" = $1", arg).Scan(
		&o.ID, &o.OrganizationName, &o.Email, &o.PasswordHash, &o.Phone, &o.Website, &o.Address,
		&o.HasActivePlan, &o.PlanType, &o.PlanStartDate, &o.PlanEndDate, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &o, nil
}

func summarize(o *typesdb.Organization) Summary {
	return Summary{
		ID:               o.ID,
		OrganizationName: o.OrganizationName,
		Email:            o.Email,
		HasActivePlan:    o.HasActivePlan,
		PlanType:         o.PlanType,
		PlanStartDate:    o.PlanStartDate,
		PlanEndDate:      o.PlanEndDate,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	name := strings.TrimSpace(req.OrganizationName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, apperrors.Invalid("Organization name, email, and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.Invalid("Invalid email format")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.Invalid("Password must be at least 6 characters long")
	}

	existing, err := s.load(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Duplicate("An organization with this email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	org := typesdb.Organization{ID: ids.New(), OrganizationName: name, Email: email}
	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.Organizations+` (id, organization_name, email, password_hash, phone, website, address,
			has_active_plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $8)`,
		org.ID, name, email, hash, req.Phone, req.Website, req.Address, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    email,
		UserName:     name,
		Action:       "register_organization",
		Description:  "Organization registered",
		ResourceID:   org.ID,
		ResourceType: "organization",
	})
	return &RegisterResponse{Message: "Organization registered successfully", Organization: summarize(&org)}, nil
}

// Login checks the password and the plan. A plan found past its end date
// is switched off on the spot.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Invalid("Email and password are required")
	}
	org, err := s.load(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	if org == nil || !auth.CheckPassword(org.PasswordHash, password) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	status := PlanNotPurchased
	if org.HasActivePlan && org.PlanEndDate != nil {
		now := s.now().UTC()
		if now.After(*org.PlanEndDate) {
			status = PlanExpired
			org.HasActivePlan = false
			_, err := s.db.Exec(ctx,
				"UPDATE "+tables.Organizations+" SET has_active_plan = FALSE, updated_at = $1 WHERE id = $2", now, org.ID)
			if err != nil {
				log.Printf("⚠️  Could not mark plan of %s expired: %v", org.ID, err)
			}
		} else {
			status = PlanActive
		}
	}

	if status != PlanActive {
		msg := "Please purchase a plan to continue."
		if status == PlanExpired {
			msg = "Plan expired. Please purchase again."
		}
		summary := summarize(org)
		summary.HasActivePlan = false
		return &LoginResponse{Message: msg, RequiresPlan: true, PlanStatus: status, Organization: summary}, nil
	}

	token, err := s.tokens.Issue(auth.Claims{
		Email:            org.Email,
		Type:             auth.TokenTypeOrganization,
		OrgID:            org.ID,
		OrganizationName: org.OrganizationName,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Message: "Login successful", Token: token, PlanStatus: status, Organization: summarize(org)}, nil
}

// CreateOrder opens a gateway order for a plan and records it as created.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.OrganizationID == "" || req.PlanType == "" || req.Amount <= 0 {
		return nil, apperrors.Invalid("Organization ID, plan type, and amount are required")
	}
	months, ok := PlanDurations[req.PlanType]
	if !ok {
		return nil, apperrors.Invalid("Invalid plan type. Must be monthly, quarterly, or yearly")
	}
	org, err := s.load(ctx, "id", req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.NotFound("Organization not found")
	}

	now := s.now().UTC()
	shortID := req.OrganizationID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   int64(math.Round(req.Amount * 100)),
		Currency: s.cfg.Currency,
		Receipt:  fmt.Sprintf("org_%s_%d", shortID, now.Unix()),
		Notes:    map[string]string{"organizationId": req.OrganizationID, "planType": req.PlanType},
	})
	if err != nil {
		return nil, apperrors.Upstream("Failed to create payment order", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.Payments+` (id, organization_id, gateway_order_id, amount, currency, plan_type,
			plan_duration_months, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		ids.New(), req.OrganizationID, order.ID, order.Amount, order.Currency, req.PlanType, months,
		typesdb.PaymentCreated, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &CreateOrderResponse{OrderID: order.ID, Amount: order.Amount, Currency: order.Currency, KeyID: s.cfg.KeyID}, nil
}

// VerifyPayment checks the checkout signature. A valid one marks the
// payment paid and starts the plan now; an invalid one marks it failed.
// A payment that is already paid cannot be verified again.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResponse, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" || req.OrganizationID == "" {
		return nil, apperrors.Invalid("All payment details are required")
	}
	now := s.now().UTC()

	if !ValidSignature(s.cfg.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		_, err := s.db.Exec(ctx,
			"UPDATE "+tables.Payments+" SET status = $1, updated_at = $2 WHERE gateway_order_id = $3 AND status <> $4",
			typesdb.PaymentFailed, now, req.OrderID, typesdb.PaymentPaid)
		if err != nil {
			log.Printf("⚠️  Could not mark order %s failed: %v", req.OrderID, err)
		}
		return nil, apperrors.Invalid("Invalid payment signature")
	}

	var org *typesdb.Organization
	err := s.db.InTx(ctx, func(tx *db.Tx) error {
		var planType, status string
		var months int
		err := tx.QueryRow(
			"SELECT plan_type, plan_duration_months, status FROM "+tables.Payments+" WHERE gateway_order_id = $1 AND organization_id = $2",
			req.OrderID, req.OrganizationID).Scan(&planType, &months, &status)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("Payment record not found")
		}
		if err != nil {
			return apperrors.Database(err)
		}
		if status == typesdb.PaymentPaid {
			return apperrors.Conflict("Payment already verified")
		}

		if _, err := tx.Exec(
			"UPDATE "+tables.Payments+" SET gateway_payment_id = $1, status = $2, updated_at = $3 WHERE gateway_order_id = $4",
			req.PaymentID, typesdb.PaymentPaid, now, req.OrderID); err != nil {
			return apperrors.Database(err)
		}

		end := now.AddDate(0, months, 0)
		if _, err := tx.Exec(`
			UPDATE `+tables.Organizations+`
			SET has_active_plan = TRUE, plan_type = $1, plan_start_date = $2, plan_end_date = $3, updated_at = $2
			WHERE id = $4`,
			planType, now, end, req.OrganizationID); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if org, err = s.load(ctx, "id", req.OrganizationID); err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.NotFound("Organization not found")
	}

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    org.Email,
		UserName:     org.OrganizationName,
		Action:       "activate_plan",
		Description:  fmt.Sprintf("Activated %s plan", *org.PlanType),
		ResourceID:   org.ID,
		ResourceType: "organization",
		Meta:         map[string]any{"orderId": req.OrderID, "paymentId": req.PaymentID},
	})
	return &VerifyPaymentResponse{Message: "Payment verified successfully. Plan activated!", Organization: summarize(org)}, nil
}

// Me returns the organization behind an organization token.
func (s *Service) Me(ctx context.Context, caller *auth.Claims) (*Summary, error) {
	if caller == nil || caller.Type != auth.TokenTypeOrganization {
		return nil, apperrors.Forbidden("Invalid token type. Organization token required.")
	}
	org, err := s.load(ctx, "id", caller.OrgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.NotFound("Organization not found")
	}
	summary := summarize(org)
	return &summary, nil
}
