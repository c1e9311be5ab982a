package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexeybedrinsky/restaurant-booking/utils"
)

// StaffOnly restricts a route group to staff and admin users.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if userRole != "staff" && userRole != "admin" {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("staff access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly restricts a route group to admin users.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if userRole != "admin" {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("admin access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
