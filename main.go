package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/clinova/clinic-booking/controllers"
	"github.com/clinova/clinic-booking/cron"
	"github.com/clinova/clinic-booking/db"
	"github.com/clinova/clinic-booking/repositories"
	"github.com/clinova/clinic-booking/routes"
	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/store"
)

func main() {
	app := fiber.New()
	db.Init()

	redisClient, err := store.NewRedisClient()
	if err != nil {
		log.Fatal(err)
	}
	log.Println("✅ Connected to Redis")

	repos := repositories.New(db.DB)
	txManager := repositories.NewTxManager(db.DB)
	resetStore := store.NewRedisStore(redisClient)

	walletService := services.NewWalletService(repos, txManager)
	appointmentService := services.NewAppointmentService(repos, txManager, walletService)
	lockoutService := services.NewLockoutService(repos.Users)
	authService := services.NewAuthService(repos.Users, lockoutService, resetStore)

	authController := controllers.NewAuthController(authService, walletService)
	appointmentController := controllers.NewAppointmentController(appointmentService)
	walletController := controllers.NewWalletController(walletService)
	paymentController := controllers.NewPaymentController(walletService, appointmentService)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})
	routes.SetupAuthRoutes(app, authController)
	routes.SetupAppointmentRoutes(app, appointmentController)
	routes.SetupWalletRoutes(app, walletController, paymentController)

	cron.StartCronJobs()

	log.Fatal(app.Listen(":8000"))
}
