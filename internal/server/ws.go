package server

import (
	ws "github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/live"
)

// CheckUpdates upgrades the connection to a WebSocket subscribed to the
// check's live updates. Guests authenticate via the token query parameter.
func (s *Server) CheckUpdates(c *gin.Context) {
	conn, err := ws.Accept(c.Writer, c.Request, nil)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer conn.CloseNow()

	client := live.NewClient(s.hub, conn, c.Param("id"))
	client.Run(c.Request.Context())

	conn.Close(ws.StatusNormalClosure, "")
}
