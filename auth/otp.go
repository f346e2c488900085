package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	apperrors "github.com/Voltaic314/DataRoom/pkg/errors"
)

// One-time code lifetimes.
const (
	LoginOTPTTL = 5 * time.Minute
	ResetOTPTTL = 10 * time.Minute
)

// MaxOTPAttempts wrong guesses burn the code.
const MaxOTPAttempts = 5

// Verification failures, distinguishable so callers can word their replies.
var (
	ErrOTPMissing  = apperrors.Invalid("Invalid or expired OTP. Please request a new OTP.")
	ErrOTPExpired  = apperrors.Invalid("OTP has expired. Please request a new OTP.")
	ErrOTPMismatch = apperrors.Invalid("Invalid OTP. Please check and try again.")
	ErrOTPLocked   = apperrors.Invalid("Too many incorrect attempts. Please request a new OTP.")
)

// OTPStore keeps one live code per (purpose, email) in otp_codes.
type OTPStore struct {
	db  *db.DB
	now func() time.Time
}

func NewOTPStore(database *db.DB) *OTPStore {
	return &OTPStore{db: database, now: time.Now}
}

// Issue generates a six digit code, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, purpose, email string, ttl time.Duration) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	_, err = s.db.Exec(ctx, `
		INSERT INTO `+tables.OTPCodes+` (purpose, email, code, expires_at, attempts)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (purpose, email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, attempts = 0
	`, purpose, normalizeEmail(email), code, s.now().UTC().Add(ttl))
	if err != nil {
		return "", apperrors.Database(err)
	}
	return code, nil
}

// Verify consumes the code on success. Expired codes are removed as well,
// and so is a code after MaxOTPAttempts wrong guesses.
func (s *OTPStore) Verify(ctx context.Context, purpose, email, code string) error {
	email = normalizeEmail(email)

	var stored string
	var expiresAt time.Time
	var attempts int
	err := s.db.QueryRow(ctx,
		"SELECT code, expires_at, attempts FROM "+tables.OTPCodes+" WHERE purpose = $1 AND email = $2",
		purpose, email,
	).Scan(&stored, &expiresAt, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOTPMissing
	}
	if err != nil {
		return apperrors.Database(err)
	}

	if s.now().UTC().After(expiresAt) {
		s.delete(ctx, purpose, email)
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(stored)) != 1 {
		if attempts+1 >= MaxOTPAttempts {
			s.delete(ctx, purpose, email)
			return ErrOTPLocked
		}
		if _, err := s.db.Exec(ctx,
			"UPDATE "+tables.OTPCodes+" SET attempts = attempts + 1 WHERE purpose = $1 AND email = $2",
			purpose, email); err != nil {
			return apperrors.Database(err)
		}
		return ErrOTPMismatch
	}
	s.delete(ctx, purpose, email)
	return nil
}

func (s *OTPStore) delete(ctx context.Context, purpose, email string) {
	if _, err := s.db.Exec(ctx, "DELETE FROM "+tables.OTPCodes+" WHERE purpose = $1 AND email = $2", purpose, email); err != nil {
		log.Printf("⚠️  Failed to delete otp for %s: %v", email, err)
	}
}

// Sweep removes every expired code and returns how many were removed.
func (s *OTPStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.Exec(ctx, "DELETE FROM "+tables.OTPCodes+" WHERE expires_at < $1", s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *OTPStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := s.Sweep(ctx); err != nil {
					log.Printf("⚠️  OTP sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("🧹 Swept %d expired OTP codes", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
