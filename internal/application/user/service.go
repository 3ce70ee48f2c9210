package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shop-auth-api/internal/application/session"
	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/infrastructure/token"
	"github.com/shop-auth-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// PrincipalStore is the user partition with the write operations
// registration and restriction need.
type PrincipalStore interface {
	Get(ctx context.Context, principalID string) (*domain.Principal, error)
	GetByUsername(ctx context.Context, username string) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	Put(ctx context.Context, p *domain.Principal) error
	SetRestricted(ctx context.Context, principalID string, restricted bool) error
}

type RegisterResult struct {
	Bearer  string
	Session *domain.Session
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest, audit session.Audit) (*RegisterResult, error)
	// Restrict flips the restricted flag and, when restricting, revokes every
	// session so outstanding tokens die with it.
	Restrict(ctx context.Context, userID string, restricted bool) error
}

type service struct {
	principals PrincipalStore
	manager    *session.Manager
	codec      *token.Codec
}

func NewService(principals PrincipalStore, manager *session.Manager, codec *token.Codec) Service {
	return &service{principals: principals, manager: manager, codec: codec}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest, audit session.Audit) (*RegisterResult, error) {
	if _, err := s.principals.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.principals.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	now := time.Now().UTC()
	p := &domain.Principal{
		PrincipalID:  id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Type:         domain.TypeUser,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.principals.Put(ctx, p); err != nil {
		return nil, err
	}

	sess, err := s.manager.Create(ctx, p.PrincipalID, domain.TypeUser, domain.SessionKindStandard, audit)
	if err != nil {
		return nil, err
	}
	bearer, err := s.codec.Issue(sess.SessionID, p.PrincipalID)
	if err != nil {
		return nil, err
	}
	sess.Principal = p
	return &RegisterResult{Bearer: bearer, Session: sess}, nil
}

func (s *service) Restrict(ctx context.Context, userID string, restricted bool) error {
	if _, err := s.principals.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.principals.SetRestricted(ctx, userID, restricted); err != nil {
		return err
	}
	if restricted {
		return s.manager.RevokeAllForPrincipal(ctx, userID)
	}
	return nil
}
