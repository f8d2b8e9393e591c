package session

import (
	"context"
	"time"
)

// Token kinds accepted by the checkout endpoints.
const (
	KindAccess  = "access"
	KindService = "service"
)

// Token binds a bearer token to a verified identity. Service-kind tokens
// authenticate the storefront's own agent process.
type Token struct {
	Token     string
	Identity  string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}
