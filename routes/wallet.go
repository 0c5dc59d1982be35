package routes

import (
	"github.com/clinova/clinic-booking/controllers"
	"github.com/clinova/clinic-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupWalletRoutes configures wallet and payment related routes
func SetupWalletRoutes(app *fiber.App, wallets *controllers.WalletController, payments *controllers.PaymentController) {
	group := app.Group("/wallets", middleware.Protected())
	group.Get("/me", wallets.GetMyWallet)
	group.Post("/:id/transactions", middleware.RequirePermission("wallets", "update"), wallets.ApplyTransaction)
	group.Get("/:id/transactions", wallets.ListTransactions)

	pay := app.Group("/payments")
	pay.Post("/deposit", middleware.Protected(), payments.CreateDeposit)
	// Gateway callback, authenticated by the gateway not by our JWTs
	pay.Post("/webhook", payments.HandleWebhook)
}
