package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentshop/internal/domain"
	sessionrepo "agentshop/internal/repository/session"
)

type stubSessionRepo struct {
	tokens     map[string]sessionrepo.Token
	createErr  error
	getErr     error
	deleted    []string
	createDups int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{tokens: map[string]sessionrepo.Token{}}
}

func (s *stubSessionRepo) Create(_ context.Context, token sessionrepo.Token) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.createDups > 0 {
		s.createDups--
		return domain.ErrAlreadyExists
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *stubSessionRepo) Get(_ context.Context, token string) (*sessionrepo.Token, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	t, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *stubSessionRepo) Delete(_ context.Context, token string) error {
	s.deleted = append(s.deleted, token)
	delete(s.tokens, token)
	return nil
}

func TestResolveValidToken(t *testing.T) {
	repo := newStubSessionRepo()
	repo.tokens["tok"] = sessionrepo.Token{
		Token:     "tok",
		Identity:  "buyer@example.com",
		Kind:      sessionrepo.KindAccess,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	svc := New(repo)

	who, kind, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if who != "buyer@example.com" || kind != sessionrepo.KindAccess {
		t.Fatalf("unexpected resolution: %s %s", who, kind)
	}
}

func TestResolveEmptyToken(t *testing.T) {
	svc := New(newStubSessionRepo())
	_, _, err := svc.Resolve(context.Background(), "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc := New(newStubSessionRepo())
	_, _, err := svc.Resolve(context.Background(), "nope")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestResolveExpiredTokenDeleted(t *testing.T) {
	repo := newStubSessionRepo()
	repo.tokens["stale"] = sessionrepo.Token{
		Token:     "stale",
		Identity:  "buyer@example.com",
		Kind:      sessionrepo.KindAccess,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	svc := New(repo)

	_, _, err := svc.Resolve(context.Background(), "stale")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for expired session, got %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "stale" {
		t.Fatalf("expected lazy delete of expired token, got %v", repo.deleted)
	}
}

func TestResolveRepoErrorPassedThrough(t *testing.T) {
	repo := newStubSessionRepo()
	repo.getErr = errors.New("db down")
	svc := New(repo)

	_, _, err := svc.Resolve(context.Background(), "tok")
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("infrastructure failure must not read as invalid token")
	}
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestIssueServiceToken(t *testing.T) {
	repo := newStubSessionRepo()
	svc := New(repo)

	token, err := svc.IssueServiceToken(context.Background(), "agent@agentshop.local", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, ok := repo.tokens[token]
	if !ok {
		t.Fatalf("token not stored")
	}
	if stored.Kind != sessionrepo.KindService || stored.Identity != "agent@agentshop.local" {
		t.Fatalf("unexpected stored token: %+v", stored)
	}
	if !stored.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", stored.ExpiresAt)
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	repo := newStubSessionRepo()
	repo.createDups = 2
	svc := New(repo)

	token, err := svc.IssueAccessToken(context.Background(), "buyer@example.com", time.Hour)
	if err != nil {
		t.Fatalf("expected retry past collisions, got %v", err)
	}
	if _, ok := repo.tokens[token]; !ok {
		t.Fatalf("token not stored after retries")
	}
}

func TestIssueCreateErrorSurfaces(t *testing.T) {
	repo := newStubSessionRepo()
	repo.createErr = errors.New("insert failed")
	svc := New(repo)

	if _, err := svc.IssueAccessToken(context.Background(), "buyer@example.com", time.Hour); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIssuedTokensDistinct(t *testing.T) {
	repo := newStubSessionRepo()
	svc := New(repo)
	a, err := svc.IssueAccessToken(context.Background(), "buyer@example.com", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.IssueAccessToken(context.Background(), "buyer@example.com", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("tokens must be unique")
	}
}
