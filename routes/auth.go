package routes

import (
	"github.com/clinova/clinic-booking/controllers"
	"github.com/clinova/clinic-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(app *fiber.App, auth *controllers.AuthController) {
	group := app.Group("/auth")

	// Public routes
	group.Post("/register", auth.Register)
	group.Post("/login", auth.Login)
	group.Post("/refresh", auth.RefreshToken)
	group.Post("/forgot-password", auth.ForgotPassword)
	group.Post("/reset-password", auth.ResetPassword)

	// Protected routes
	group.Get("/me", middleware.Protected(), auth.GetUserProfile)
	group.Post("/logout", middleware.Protected(), auth.Logout)
}
