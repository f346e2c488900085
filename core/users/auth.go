package users

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/Voltaic314/DataRoom/notify"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// Service covers sign-in by one-time code, self registration, password
// reset and user administration.
type Service struct {
	db       *db.DB
	tokens   *auth.Tokens
	otps     *auth.OTPStore
	mailer   notify.Mailer
	now      func() time.Time
	dispatch func(func())
}

func NewService(database *db.DB, tokens *auth.Tokens, otps *auth.OTPStore, mailer notify.Mailer) *Service {
	return &Service{
		db:       database,
		tokens:   tokens,
		otps:     otps,
		mailer:   mailer,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MinPasswordLength applies to every password set through the API.
const MinPasswordLength = 6

const forgotPasswordReply = "If the email exists, a password reset OTP has been sent"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestOTP mails a login code. Codes are issued for any address; unknown
// users fail at verification.
func (s *Service) RequestOTP(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", apperrors.Invalid("Email is required")
	}
	code, err := s.otps.Issue(ctx, typesdb.OTPLogin, email, auth.LoginOTPTTL)
	if err != nil {
		return "", err
	}
	s.sendMail(email, "VDR OTP Login", notify.TplLoginOTP, map[string]any{
		"otp":     code,
		"minutes": int(auth.LoginOTPTTL / time.Minute),
	})

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    email,
		Action:       "request_otp",
		Description:  "OTP requested for " + email,
		ResourceID:   email,
		ResourceType: "user",
	})
	return "OTP sent to email", nil
}

// VerifyOTP consumes a login code and issues a bearer token.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (*LoginResponse, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(otp) == "" {
		return nil, apperrors.Invalid("Email and OTP required")
	}
	if err := s.otps.Verify(ctx, typesdb.OTPLogin, email, otp); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(auth.Claims{Email: user.Email, Role: user.Role, Name: user.Name})
	if err != nil {
		return nil, err
	}

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    user.Email,
		UserName:     user.Name,
		Role:         user.Role,
		Action:       "login",
		Description:  "User logged in",
		ResourceID:   user.Email,
		ResourceType: "user",
	})
	return &LoginResponse{Token: token, Role: user.Role}, nil
}

// Register creates an account with a bcrypt hashed password. Only an admin
// caller may create another admin; anonymous sign-ups are users.
func (s *Service) Register(ctx context.Context, caller *auth.Claims, req RegisterRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return "", apperrors.Invalid("All fields are required")
	}
	if req.Role != typesdb.RoleAdmin && req.Role != typesdb.RoleUser {
		return "", apperrors.Invalid("Invalid role %q", req.Role)
	}
	if req.Role == typesdb.RoleAdmin && !caller.IsAdmin() {
		return "", apperrors.Forbidden("Only an admin can register another admin")
	}
	if len(req.Password) < MinPasswordLength {
		return "", apperrors.Invalid("Password must be at least %d characters", MinPasswordLength)
	}

	exists, err := s.exists(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperrors.Duplicate("User already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(ctx,
		"INSERT INTO "+tables.Users+" (email, name, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)",
		req.Email, req.Name, hash, req.Role, s.now().UTC())
	if err != nil {
		return "", apperrors.Database(err)
	}

	s.sendMail(req.Email, "VDR Registration", notify.TplRegistered, map[string]any{"name": req.Name})
	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    req.Email,
		UserName:     req.Name,
		Role:         req.Role,
		Action:       "register_user",
		Description:  "User registered with role " + req.Role,
		ResourceID:   req.Email,
		ResourceType: "user",
	})
	return "User registered successfully", nil
}

// ForgotPassword mails a reset code when the account exists. The reply is
// the same either way.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", apperrors.Invalid("Email is required")
	}
	exists, err := s.exists(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists {
		return forgotPasswordReply, nil
	}

	code, err := s.otps.Issue(ctx, typesdb.OTPPasswordReset, email, auth.ResetOTPTTL)
	if err != nil {
		return "", err
	}
	s.sendMail(email, "VDR Password Reset", notify.TplPasswordResetOTP, map[string]any{
		"otp":     code,
		"minutes": int(auth.ResetOTPTTL / time.Minute),
	})

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    email,
		Action:       "request_password_reset",
		Description:  "Password reset OTP requested for " + email,
		ResourceID:   email,
		ResourceType: "user",
	})
	return forgotPasswordReply, nil
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.OTP) == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return "", apperrors.Invalid("All fields are required")
	}
	if req.NewPassword != req.ConfirmPassword {
		return "", apperrors.Invalid("New password and confirm password do not match")
	}
	if len(req.NewPassword) < MinPasswordLength {
		return "", apperrors.Invalid("New password must be at least %d characters", MinPasswordLength)
	}

	if err := s.otps.Verify(ctx, typesdb.OTPPasswordReset, email, req.OTP); err != nil {
		return "", err
	}
	if err := s.SetPassword(ctx, email, req.NewPassword); err != nil {
		return "", err
	}

	activity.Record(ctx, s.db, activity.Entry{
		UserEmail:    email,
		Action:       "reset_password_with_otp",
		Description:  "Password reset successfully",
		ResourceID:   email,
		ResourceType: "user",
	})
	return "Password reset successfully", nil
}

// SetPassword stores a new hash for an existing user.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(ctx, "UPDATE "+tables.Users+" SET password_hash = $1 WHERE email = $2", hash, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

func (s *Service) exists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := s.db.QueryRow(ctx, "SELECT CAST(COUNT(*) AS BIGINT) FROM "+tables.Users+" WHERE email = $1", email).Scan(&n)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return n > 0, nil
}

func (s *Service) load(ctx context.Context, email string) (*typesdb.User, error) {
	var u typesdb.User
	err := s.db.QueryRow(ctx,
		"SELECT email, name, password_hash, role, created_at FROM "+tables.Users+" WHERE email = $1", email,
	).Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return &u, nil
}

func (s *Service) sendMail(to, subject, tpl string, data map[string]any) {
	if s.mailer == nil {
		return
	}
	html, err := notify.Render(tpl, data)
	if err != nil {
		log.Printf("❌ Could not render %s email: %v", tpl, err)
		return
	}
	s.dispatch(func() {
		if res := s.mailer.Send(context.Background(), to, subject, html); !res.Success {
			log.Printf("⚠️  Failed to email %s (%q): %s", to, subject, res.Error)
		}
	})
}
