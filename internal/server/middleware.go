package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/spacial/internal/observability/context"
)

const HeaderOperator = "X-Operator"

// OperatorContext copies the operator header into the request context so
// logs and ingestion can attribute measurements without a request body.
func OperatorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if operator := strings.TrimSpace(c.GetHeader(HeaderOperator)); operator != "" {
			ctx := obscontext.WithOperator(c.Request.Context(), operator)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
