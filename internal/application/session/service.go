package session

import (
	"context"
	"fmt"

	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/infrastructure/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer  string
	Session *domain.Session
}

// PrincipalStore is the credential-store partition this service reads.
// Instantiated once per partition (users, admins) with the same type.
type PrincipalStore interface {
	Get(ctx context.Context, principalID string) (*domain.Principal, error)
	GetByUsername(ctx context.Context, username string) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
}

type Service interface {
	Login(ctx context.Context, req LoginRequest, audit Audit) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*domain.Session, error)
}

type service struct {
	principals    PrincipalStore
	principalType string
	manager       *Manager
	codec         *token.Codec
}

// NewService builds the login/logout/current flows for one principal
// partition. principalType is stamped onto minted session rows.
func NewService(principals PrincipalStore, principalType string, manager *Manager, codec *token.Codec) Service {
	return &service{
		principals:    principals,
		principalType: principalType,
		manager:       manager,
		codec:         codec,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest, audit Audit) (*LoginResult, error) {
	p, err := s.principals.GetByUsername(ctx, req.Username)
	if err != nil {
		p, err = s.principals.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if p.Restricted {
		return nil, fmt.Errorf("account restricted: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	sess, err := s.manager.Create(ctx, p.PrincipalID, s.principalType, domain.SessionKindStandard, audit)
	if err != nil {
		return nil, err
	}
	bearer, err := s.codec.Issue(sess.SessionID, p.PrincipalID)
	if err != nil {
		return nil, err
	}
	sess.Principal = p
	return &LoginResult{Bearer: bearer, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	_, err := s.manager.Revoke(ctx, sessionID)
	return err
}

func (s *service) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.manager.Validate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.principals.Get(ctx, sess.PrincipalID)
	if err != nil {
		return nil, err
	}
	if p.Restricted {
		return nil, fmt.Errorf("account restricted: %w", domain.ErrUnauthorized)
	}
	sess.Principal = p
	return sess, nil
}
