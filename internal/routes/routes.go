package routes

import (
	"github.com/gin-gonic/gin"

	"legalaid/internal/authz"
	"legalaid/internal/handlers"
	"legalaid/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	verifyHandler *handlers.VerifyHandler,
	resetHandler *handlers.PasswordResetHandler,
	accountHandler *handlers.AccountHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/verify", verifyHandler.Confirm)
	r.POST("/verify/resend", verifyHandler.Resend)
	r.POST("/password-reset/request", resetHandler.Request)
	r.POST("/password-reset/confirm", resetHandler.Confirm)

	// ---- protected (JWT)
	r.Use(middleware.AuthMiddleware())

	r.GET("/me", accountHandler.Me)
	r.POST("/logout", accountHandler.Logout)

	admin := r.Group("/admin", middleware.RequireRoles(authz.RoleAdmin))
	{
		admin.GET("/accounts/count", accountHandler.Count)
	}

	return r
}
