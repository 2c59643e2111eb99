package main

import "legalaid/internal/app"

// @title           Legal Aid Credential Service API
// @version         1.0
// @description     Registration, login, email/phone verification and password reset for the legal aid portal.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
