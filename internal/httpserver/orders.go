package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agentshop/internal/domain"
	sessionrepo "agentshop/internal/repository/session"
)

// listOrdersHandler serves the denormalized order index. Customers see their
// own orders; service tokens see everything.
func listOrdersHandler(orders orderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := orders.ListIndex(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"errorKind": "internal", "message": "order listing failed"})
			return
		}

		if tokenKindFromContext(c) != sessionrepo.KindService {
			who := identityFromContext(c)
			filtered := entries[:0]
			for _, e := range entries {
				if e.CustomerEmail == who {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		if entries == nil {
			entries = []domain.OrderIndexEntry{}
		}

		c.JSON(http.StatusOK, gin.H{"results": entries, "total": len(entries)})
	}
}

func getOrderHandler(orders orderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.GetByID(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"errorKind": "not_found", "message": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"errorKind": "internal", "message": "order lookup failed"})
			return
		}

		if tokenKindFromContext(c) != sessionrepo.KindService && order.Customer.Email != identityFromContext(c) {
			c.JSON(http.StatusNotFound, gin.H{"errorKind": "not_found", "message": "order not found"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}
