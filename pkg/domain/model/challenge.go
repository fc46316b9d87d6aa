package model

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

const (
	DefaultOTPDigits      = 6
	DefaultOTPTTL         = 5 * time.Minute
	DefaultOTPMaxAttempts = 5
)

// ActionRef binds a challenge to exactly one guarded action
type ActionRef struct {
	Kind      types.ApprovalActionKind
	SubjectID string
}

// String returns "kind:subject"
func (a ActionRef) String() string {
	return a.Kind.String() + ":" + a.SubjectID
}

// Validate checks that the reference names a known action and a subject
func (a ActionRef) Validate() error {
	if !a.Kind.IsValid() {
		return NewValidationError("action", goerr.V("kind", a.Kind))
	}
	if strings.TrimSpace(a.SubjectID) == "" {
		return NewValidationError("subjectId")
	}
	return nil
}

// Challenge is a one-time passcode issued for a guarded action. Only a hash
// of the code is kept.
type Challenge struct {
	ID             types.ChallengeID
	Action         ActionRef
	Recipient      types.EmployeeID
	CodeHash       string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	Consumed       bool
	ConsumedAt     *time.Time
	FailedAttempts int
	MaxAttempts    int
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewChallenge creates a challenge and returns it with the raw code, which is
// not stored anywhere on the challenge.
func NewChallenge(action ActionRef, recipient types.EmployeeID, now time.Time, ttl time.Duration, digits, maxAttempts int) (*Challenge, string, error) {
	if digits <= 0 {
		digits = DefaultOTPDigits
	}
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultOTPMaxAttempts
	}

	code, err := generateCode(digits)
	if err != nil {
		return nil, "", err
	}

	id := types.NewChallengeID()
	return &Challenge{
		ID:          id,
		Action:      action,
		Recipient:   recipient,
		CodeHash:    HashChallengeCode(id, code),
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: maxAttempts,
	}, code, nil
}

func generateCode(digits int) (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate otp code")
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// HashChallengeCode returns the hex SHA-256 of the challenge id and code
func HashChallengeCode(id types.ChallengeID, code string) string {
	sum := sha256.Sum256([]byte(id.String() + ":" + code))
	return hex.EncodeToString(sum[:])
}

// IsExpired reports whether the challenge can no longer be redeemed at now
func (c *Challenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Check validates a redemption attempt without mutating the challenge.
// Errors are checked in order: consumed, expired, action mismatch, code.
func (c *Challenge) Check(code string, action ActionRef, now time.Time) error {
	if c.Consumed {
		return goerr.Wrap(ErrOtpAlreadyConsumed, "challenge already consumed",
			goerr.V(IDKey, c.ID.String()))
	}
	if c.IsExpired(now) {
		return goerr.Wrap(ErrOtpExpired, "challenge expired",
			goerr.V(IDKey, c.ID.String()), goerr.V("expires_at", c.ExpiresAt))
	}
	if c.Action != action {
		return goerr.Wrap(ErrOtpInvalid, "challenge issued for another action",
			goerr.V(IDKey, c.ID.String()), goerr.V("action", action.String()))
	}
	got := HashChallengeCode(c.ID, strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(got), []byte(c.CodeHash)) != 1 {
		return goerr.Wrap(ErrOtpInvalid, "code does not match",
			goerr.V(IDKey, c.ID.String()))
	}
	return nil
}

// RecordFailure counts a wrong code. Once the attempt budget is spent the
// challenge is burned and behaves as consumed.
func (c *Challenge) RecordFailure(now time.Time) {
	c.FailedAttempts++
	if c.MaxAttempts > 0 && c.FailedAttempts >= c.MaxAttempts {
		c.Consumed = true
		c.ConsumedAt = &now
	}
}

// Consume marks the challenge as used
func (c *Challenge) Consume(now time.Time) {
	c.Consumed = true
	c.ConsumedAt = &now
}
