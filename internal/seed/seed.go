package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	sessionrepo "agentshop/internal/repository/session"
	identitysvc "agentshop/internal/service/identity"
)

const (
	agentIdentity = "agent@agentshop.local"
	demoIdentity  = "demo@example.com"

	serviceTokenTTL = 90 * 24 * time.Hour
	accessTokenTTL  = 48 * time.Hour
)

// Apply mints tokens for manual testing: a long-lived service token for the
// storefront agent and a customer access token for the demo identity. Tokens
// are printed once; re-running mints fresh ones.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	repo := sessionrepo.NewPostgres(pool)
	ids := identitysvc.New(repo)

	serviceToken, err := ids.IssueServiceToken(ctx, agentIdentity, serviceTokenTTL)
	if err != nil {
		return fmt.Errorf("issue agent service token: %w", err)
	}
	logger.Printf("agent service token (%s): %s", agentIdentity, serviceToken)

	accessToken, err := ids.IssueAccessToken(ctx, demoIdentity, accessTokenTTL)
	if err != nil {
		return fmt.Errorf("issue demo access token: %w", err)
	}
	logger.Printf("demo access token (%s): %s", demoIdentity, accessToken)

	return nil
}
