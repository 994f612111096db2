package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/settlement"
)

// GetCheck returns the full check aggregate with derived totals and the
// current revision.
func (s *Server) GetCheck(c *gin.Context) {
	tab, err := s.tabs.GetTab(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

type claimRequest struct {
	ItemID  string           `json:"item_id" binding:"required"`
	Type    models.ClaimType `json:"type" binding:"required"`
	Amount  models.Cents     `json:"amount_cents"`
	Percent float64          `json:"percent"`
}

// ClaimItem applies a claim by the session's participant on an item.
func (s *Server) ClaimItem(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	claims := sessionClaims(c)
	tab, err := s.tabs.ClaimItem(c.Request.Context(), c.Param("id"), claims.ParticipantID, req.ItemID,
		req.Type, settlement.ClaimRequest{Amount: req.Amount, Percent: req.Percent})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// RemoveClaim deletes one of the session participant's claims.
func (s *Server) RemoveClaim(c *gin.Context) {
	claims := sessionClaims(c)
	tab, err := s.tabs.RemoveClaim(c.Request.Context(), c.Param("id"), claims.ParticipantID, c.Param("claimID"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

type tipRequest struct {
	TipCents models.Cents `json:"tip_cents"`
}

// SetTip sets the check's tip amount.
func (s *Server) SetTip(c *gin.Context) {
	var req tipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tab, err := s.tabs.SetTip(c.Request.Context(), c.Param("id"), req.TipCents)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

type receivedRequest struct {
	ParticipantID string       `json:"participant_id" binding:"required"`
	AmountCents   models.Cents `json:"amount_cents"`
}

// MarkReceived records cash handed to the host. Only the check's host may
// call this; staff use the staff route.
func (s *Server) MarkReceived(c *gin.Context) {
	var req receivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	claims := sessionClaims(c)
	tab, err := s.tabs.GetTab(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if claims.Role != models.RoleStaff && claims.ParticipantID != tab.HostID {
		AbortWithError(c, ErrForbidden)
		return
	}

	tab, err = s.tabs.MarkReceived(c.Request.Context(), c.Param("id"), req.ParticipantID, req.AmountCents)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}
