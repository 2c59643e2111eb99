package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalaid/internal/repositories"
	"legalaid/internal/services"
)

type AccountHandler struct {
	accounts    repositories.AccountRepository
	authService services.AuthService
}

func NewAccountHandler(accounts repositories.AccountRepository, authService services.AuthService) *AccountHandler {
	return &AccountHandler{accounts: accounts, authService: authService}
}

// @Summary      Current account
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Account
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	accountID, _ := getAccountAndRole(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no account in context"})
		return
	}

	account, err := h.accounts.GetByID(accountID)
	if err != nil || account == nil {
		log.Printf("[account][me] lookup failed accountID=%d: %v", accountID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// @Summary      Log out
// @Description  Revokes the stored refresh token
// @Tags         Accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *AccountHandler) Logout(c *gin.Context) {
	accountID, _ := getAccountAndRole(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no account in context"})
		return
	}
	if err := h.authService.Logout(accountID); err != nil {
		log.Printf("[account][logout] failed accountID=%d: %v", accountID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary      Total account count
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Failure      403  {object}  map[string]string
// @Router       /admin/accounts/count [get]
func (h *AccountHandler) Count(c *gin.Context) {
	count, err := h.accounts.GetCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
