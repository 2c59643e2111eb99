package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalaid/internal/services"
)

type VerifyHandler struct {
	verification services.VerificationService
}

func NewVerifyHandler(verification services.VerificationService) *VerifyHandler {
	return &VerifyHandler{verification: verification}
}

// @Summary      Confirm a verification code
// @Description  Consumes a one-time code and marks the channel (EMAIL or PHONE) verified
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /verify [post]
func (h *VerifyHandler) Confirm(c *gin.Context) {
	var req struct {
		AccountID int    `json:"account_id" binding:"required"`
		Channel   string `json:"channel" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.Verify(req.AccountID, req.Channel, req.Code); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOrExpiredCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
		case errors.Is(err, services.ErrUnknownChannel):
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be EMAIL or PHONE"})
		default:
			log.Printf("[verify][confirm] service error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel verified"})
}

// @Summary      Resend a verification code
// @Description  Issues a fresh code for the channel; throttled per account
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /verify/resend [post]
func (h *VerifyHandler) Resend(c *gin.Context) {
	var req struct {
		AccountID int    `json:"account_id" binding:"required"`
		Channel   string `json:"channel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.Resend(req.AccountID, req.Channel); err != nil {
		switch {
		case errors.Is(err, services.ErrResendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(err, services.ErrUnknownChannel):
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be EMAIL or PHONE"})
		default:
			log.Printf("[verify][resend] service error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resend failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code sent"})
}
