package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/models"
)

type paymentIntentRequest struct {
	CheckID     string       `json:"check_id" binding:"required"`
	AmountCents models.Cents `json:"amount_cents"`
	TipCents    models.Cents `json:"tip_cents"`
}

// CreatePaymentIntent opens a provider payment for the session's
// participant. The tip portion rides along in the charged amount.
func (s *Server) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	claims := sessionClaims(c)
	if claims.TabID != req.CheckID {
		AbortWithError(c, ErrForbidden)
		return
	}

	intent, err := s.payments.CreateIntent(c.Request.Context(), req.CheckID, claims.ParticipantID,
		req.AmountCents+req.TipCents)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

type paymentConfirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// ConfirmPayment checks the intent with the provider and records the
// payment on the check.
func (s *Server) ConfirmPayment(c *gin.Context) {
	var req paymentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tab, err := s.payments.Confirm(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}
