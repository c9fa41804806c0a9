package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs handles websocket requests from an agent dashboard.
func ServeWs(hub *Hub, c *websocket.Conn, tenantId string) {
	client := &Client{Hub: hub, Conn: c, TenantID: tenantId, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
