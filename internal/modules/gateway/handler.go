package gateway

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the socket.io endpoint. Stock clients poll
// /socket.io at the server root, so rg must be a root-level group.
func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	rg.Any("/socket.io", handler)
	rg.Any("/socket.io/*any", handler)
}
