package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/response"
)

// RequireRoles allows the request through only for the listed roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.WithDetails(appErrors.ErrForbidden, map[string]interface{}{"role": string(claims.Role)}))
			c.Abort()
			return
		}
		c.Next()
	}
}
