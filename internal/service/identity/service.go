package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"agentshop/internal/domain"
	sessionrepo "agentshop/internal/repository/session"
)

// ErrInvalidToken indicates the provided token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

// Service resolves bearer tokens to verified identities. Session issuance for
// customers happens upstream; this service only validates tokens and mints
// service-kind tokens for the storefront's agent process.
type Service struct {
	repo sessionrepo.Repository
}

func New(repo sessionrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the verified identity and token kind bound to a bearer
// token. Expired tokens are deleted lazily and rejected.
func (s *Service) Resolve(ctx context.Context, token string) (string, string, error) {
	if token == "" {
		return "", "", ErrInvalidToken
	}
	meta, err := s.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}
	if time.Now().After(meta.ExpiresAt) {
		_ = s.repo.Delete(ctx, token)
		return "", "", ErrInvalidToken
	}
	return meta.Identity, meta.Kind, nil
}

// IssueServiceToken mints a service-kind token binding the agent process to
// the identity it purchases for.
func (s *Service) IssueServiceToken(ctx context.Context, identity string, ttl time.Duration) (string, error) {
	return s.issue(ctx, identity, sessionrepo.KindService, ttl)
}

// IssueAccessToken mints a customer access token. Login flows live upstream;
// this exists for seeding and operational tooling.
func (s *Service) IssueAccessToken(ctx context.Context, identity string, ttl time.Duration) (string, error) {
	return s.issue(ctx, identity, sessionrepo.KindAccess, ttl)
}

func (s *Service) issue(ctx context.Context, identity, kind string, ttl time.Duration) (string, error) {
	expiresAt := time.Now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = s.repo.Create(ctx, sessionrepo.Token{
			Token:     token,
			Identity:  identity,
			Kind:      kind,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
