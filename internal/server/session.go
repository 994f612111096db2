package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
	Name    string `json:"name"`
}

type joinResponse struct {
	SessionID     string `json:"session_id"`
	Role          string `json:"role"`
	CheckID       string `json:"check_id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Token         string `json:"token"`
	ShareLink     string `json:"share_link"`
}

// Join establishes a guest session from a scanned QR token.
func (s *Server) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	session, _, err := s.sessions.Join(c.Request.Context(), req.QRToken, req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, joinResponse{
		SessionID:     session.SessionID,
		Role:          string(session.Role),
		CheckID:       session.TabID,
		ParticipantID: session.ParticipantID,
		Name:          session.Name,
		Token:         session.Token,
		ShareLink:     session.ShareLink,
	})
}

type staffLoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StaffLogin establishes a staff session from venue credentials.
func (s *Server) StaffLogin(c *gin.Context) {
	var req staffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	session, err := s.sessions.StaffLogin(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, joinResponse{
		SessionID: session.SessionID,
		Role:      string(session.Role),
		Name:      session.Name,
		Token:     session.Token,
	})
}
