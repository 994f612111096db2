package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/settlement"
)

// ListChecks returns dashboard summaries of every check, newest first.
func (s *Server) ListChecks(c *gin.Context) {
	summaries, err := s.tabs.ListTabs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": summaries})
}

type nudgeRequest struct {
	Reason settlement.NudgeReason `json:"reason" binding:"required"`
}

// Nudge pings the check's guests about unclaimed items or unpaid shares.
func (s *Server) Nudge(c *gin.Context) {
	var req nudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.tabs.Nudge(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// CloseCheck closes the check and starts the undo grace window.
func (s *Server) CloseCheck(c *gin.Context) {
	tab, err := s.tabs.CloseTab(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// ReopenCheck undoes a close while the grace window is open.
func (s *Server) ReopenCheck(c *gin.Context) {
	tab, err := s.tabs.UndoClose(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// StaffMarkReceived records cash received from a participant, on behalf of
// the host.
func (s *Server) StaffMarkReceived(c *gin.Context) {
	var req receivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tab, err := s.tabs.MarkReceived(c.Request.Context(), c.Param("id"), req.ParticipantID, req.AmountCents)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}
