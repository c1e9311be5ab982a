package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alexeybedrinsky/restaurant-booking/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DashboardWSHandler -> live table/reservation feed for staff dashboards
func DashboardWSHandler(c *gin.Context) {
	roleInterface, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role := roleInterface.(string)

	if role != "staff" && role != "admin" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	events.RegisterClient(ws, role)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	events.UnregisterClient(ws)
}
