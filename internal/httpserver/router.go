package httpserver

import (
	"context"
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentshop/internal/checkout"
	"agentshop/internal/domain"
	"agentshop/internal/metrics"
	sessionrepo "agentshop/internal/repository/session"
)

// checkoutService is the slice of the orchestrator the handlers consume.
type checkoutService interface {
	CheckoutWithCredential(ctx context.Context, in checkout.Input) (checkout.Result, error)
	CheckoutWithInstrument(ctx context.Context, in checkout.InstrumentInput) (checkout.Result, error)
	Quote(lines []domain.CartLine, prepaidShipping bool) domain.OrderTotals
}

type identityResolver interface {
	Resolve(ctx context.Context, token string) (identity, kind string, err error)
}

type orderReader interface {
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListIndex(ctx context.Context) ([]domain.OrderIndexEntry, error)
}

// Deps carries the collaborators the router wires into handlers.
type Deps struct {
	CheckoutSvc checkoutService
	IdentitySvc identityResolver
	Orders      orderReader
	Metrics     *metrics.Registry
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CheckoutSvc == nil {
		return nil, errors.New("checkout service required")
	}
	if deps.IdentitySvc == nil {
		return nil, errors.New("identity service required")
	}
	if deps.Orders == nil {
		return nil, errors.New("order reader required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	customerAuth := identityMiddleware(deps.IdentitySvc, sessionrepo.KindAccess)
	agentAuth := identityMiddleware(deps.IdentitySvc, sessionrepo.KindService)
	anyAuth := identityMiddleware(deps.IdentitySvc, sessionrepo.KindAccess, sessionrepo.KindService)

	router.POST("/checkout", customerAuth, checkoutHandler(deps.CheckoutSvc, false))
	// The agent entry point is prepaid with free shipping and requires a
	// service-kind token; agent identity is never taken on faith.
	router.POST("/agent/checkout", agentAuth, checkoutHandler(deps.CheckoutSvc, true))
	router.POST("/checkout/quote", anyAuth, quoteHandler(deps.CheckoutSvc))

	router.GET("/orders", anyAuth, listOrdersHandler(deps.Orders))
	router.GET("/orders/:orderId", anyAuth, getOrderHandler(deps.Orders))

	return router, nil
}
