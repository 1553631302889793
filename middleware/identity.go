package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// UserIDHeader carries the caller id set by the upstream identity provider.
const UserIDHeader = "X-User-ID"

const userIDKey = "ledger_user_id"

// Identity trusts the upstream identity provider and only checks that a user id is present.
func Identity() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := strings.TrimSpace(string(c.GetHeader(UserIDHeader)))
		if id == "" {
			hlog.CtxDebugf(ctx, "[Identity] missing %s, path=%s", UserIDHeader, c.Path())
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]interface{}{"error": "missing user identity"})
			return
		}
		c.Set(userIDKey, id)
		c.Next(ctx)
	}
}

// UserID returns the id stored by Identity, empty when the request did not pass through it.
func UserID(c *app.RequestContext) string {
	return c.GetString(userIDKey)
}
