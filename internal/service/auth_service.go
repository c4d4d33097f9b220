package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"action_items/internal/domain"
	"action_items/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users   UserStore
	tokens  *TokenIssuer
	revoker *TokenRevoker
	audit   *AuditService

	// HashCost is the bcrypt cost used for new passwords.
	HashCost int
	now      func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenIssuer, revoker *TokenRevoker, audit *AuditService) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		revoker:  revoker,
		audit:    audit,
		HashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register creates the account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.User, string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := domain.Validate(&reg); err != nil {
		return nil, "", err
	}

	if _, err := s.users.GetByEmail(ctx, reg.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.HashCost)
	if err != nil {
		return nil, "", err
	}

	now := domain.Stamp(s.now())
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.audit.Log(ctx, u.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, nil)
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.User, string, error) {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := domain.Validate(&creds); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.audit.Log(ctx, u.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, nil)
	return u, token, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil && s.revoker.IsRevoked(ctx, claims.JTI) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
			return err
		}
	}
	s.audit.Log(ctx, claims.UserID, domain.AuditActionLogout, domain.AuditCategoryAuth, nil)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	if err := domain.Validate(&upd); err != nil {
		return nil, err
	}

	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	u.UpdatedAt = domain.Stamp(s.now())
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
