package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// Delivery channels for the one-time code.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// DefaultOperationLifetime bounds how long a pending operation stays usable.
// Overridable via OTP_LIFETIME.
const DefaultOperationLifetime = 15 * time.Minute

type StartRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Channel string `json:"channel" validate:"omitempty,oneof=email sms"`
}

type CheckCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=4,numeric"`
}

type CompleteRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=4,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// PrincipalStore is the user partition of the credential store.
type PrincipalStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	Update(ctx context.Context, principalID string, updates map[string]interface{}) error
}

// OperationStore holds recovery operation rows keyed by (principal_id, name).
type OperationStore interface {
	Put(ctx context.Context, op *domain.RecoveryOperation) error
	Get(ctx context.Context, principalID, name string) (*domain.RecoveryOperation, error)
	UpdateStatus(ctx context.Context, principalID, name, status string) error
	Delete(ctx context.Context, principalID, name string) error
}

// SessionRevoker force-revokes every session of a principal.
type SessionRevoker interface {
	RevokeAllForPrincipal(ctx context.Context, principalID string) error
}

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service drives the forgot-password flow:
//
//	STARTED -> OTP_SENT -> OTP_CORRECT -> (row deleted, password updated)
//
// Every failure — unknown identity, restricted principal, wrong or stale
// code — surfaces as the same ErrValidation so responses reveal nothing
// about account existence.
type Service interface {
	Start(ctx context.Context, req StartRequest) error
	CheckCode(ctx context.Context, req CheckCodeRequest) error
	Complete(ctx context.Context, req CompleteRequest) error
}

type service struct {
	principals PrincipalStore
	operations OperationStore
	sessions   SessionRevoker
	mailer     Mailer
	smsSender  SMSSender
	lifetime   time.Duration
	now        func() time.Time
}

// NewService builds the recovery service. A zero lifetime keeps the default.
func NewService(principals PrincipalStore, operations OperationStore, sessions SessionRevoker, mailer Mailer, smsSender SMSSender, lifetime time.Duration) Service {
	if lifetime <= 0 {
		lifetime = DefaultOperationLifetime
	}
	return &service{
		principals: principals,
		operations: operations,
		sessions:   sessions,
		mailer:     mailer,
		smsSender:  smsSender,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// Start begins (or restarts) a forgot-password operation. A Put on the same
// (principal_id, name) key overwrites the previous row, so a prior code stops
// matching the moment a new start lands.
func (s *service) Start(ctx context.Context, req StartRequest) error {
	p, err := s.resolve(ctx, req.Email)
	if err != nil {
		return err
	}
	code, err := otp.New()
	if err != nil {
		return err
	}
	now := s.now()
	op := &domain.RecoveryOperation{
		PrincipalID: p.PrincipalID,
		Name:        domain.OpForgotPassword,
		Status:      domain.OpStatusStarted,
		OTP:         code,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(s.lifetime).Unix(),
	}
	if err := s.operations.Put(ctx, op); err != nil {
		return err
	}
	if err := s.dispatch(ctx, p, req.Channel, code); err != nil {
		return err
	}
	return s.operations.UpdateStatus(ctx, p.PrincipalID, domain.OpForgotPassword, domain.OpStatusOTPSent)
}

// CheckCode confirms the submitted code against the active operation and
// advances it to OTP_CORRECT. Safe to call again for re-verification.
func (s *service) CheckCode(ctx context.Context, req CheckCodeRequest) error {
	p, op, err := s.activeOperation(ctx, req.Email, req.OTP)
	if err != nil {
		return err
	}
	if op.Status == domain.OpStatusOTPCorrect {
		return nil
	}
	return s.operations.UpdateStatus(ctx, p.PrincipalID, domain.OpForgotPassword, domain.OpStatusOTPCorrect)
}

// Complete consumes the operation: writes the new credential, deletes the
// row, and revokes every session of the principal so all devices re-login.
func (s *service) Complete(ctx context.Context, req CompleteRequest) error {
	p, _, err := s.activeOperation(ctx, req.Email, req.OTP)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.principals.Update(ctx, p.PrincipalID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	if err := s.operations.Delete(ctx, p.PrincipalID, domain.OpForgotPassword); err != nil {
		slog.Warn("failed to delete completed recovery operation", "principal_id", p.PrincipalID, "err", err)
	}
	return s.sessions.RevokeAllForPrincipal(ctx, p.PrincipalID)
}

// resolve maps unknown and restricted identities to the same generic failure
// as a wrong code.
func (s *service) resolve(ctx context.Context, email string) (*domain.Principal, error) {
	p, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown identity: %w", domain.ErrValidation)
		}
		return nil, err
	}
	if p.Restricted {
		return nil, fmt.Errorf("principal restricted: %w", domain.ErrValidation)
	}
	return p, nil
}

// activeOperation resolves the principal, loads the operation, and checks
// freshness and the submitted code. The row is left untouched on mismatch —
// retries are permitted.
func (s *service) activeOperation(ctx context.Context, email, code string) (*domain.Principal, *domain.RecoveryOperation, error) {
	p, err := s.resolve(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	op, err := s.operations.Get(ctx, p.PrincipalID, domain.OpForgotPassword)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("no active operation: %w", domain.ErrValidation)
		}
		return nil, nil, err
	}
	if op.ExpiresAt < s.now().Unix() {
		return nil, nil, fmt.Errorf("operation expired: %w", domain.ErrValidation)
	}
	if op.Status == domain.OpStatusStarted {
		return nil, nil, fmt.Errorf("code not yet dispatched: %w", domain.ErrValidation)
	}
	if op.OTP != code {
		return nil, nil, fmt.Errorf("code mismatch: %w", domain.ErrValidation)
	}
	return p, op, nil
}

func (s *service) dispatch(ctx context.Context, p *domain.Principal, channel, code string) error {
	if channel == ChannelSMS {
		if p.Phone == nil || s.smsSender == nil {
			return fmt.Errorf("sms channel unavailable: %w", domain.ErrValidation)
		}
		return s.smsSender.SendSMS(ctx, *p.Phone, "Your recovery code: "+code)
	}
	return s.mailer.SendEmail(p.Email, "Password Recovery", "Your recovery code: "+code)
}
