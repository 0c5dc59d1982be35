package routes

import (
	"github.com/clinova/clinic-booking/controllers"
	"github.com/clinova/clinic-booking/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, appointments *controllers.AppointmentController) {
	group := app.Group("/appointments", middleware.Protected())

	group.Get("/conflicts", appointments.GetConflicts)
	group.Get("/doctor/:doctorId", appointments.ListByDoctor)
	group.Get("/patient/:patientId", appointments.ListByPatient)
	group.Get("/:id", appointments.GetAppointment)
	group.Post("/", middleware.RequirePermission("appointments", "create"), appointments.CreateAppointment)
	group.Patch("/:id/status", middleware.RequirePermission("appointments", "update"), appointments.UpdateStatus)
	group.Post("/:id/review", appointments.SubmitReview)
	group.Post("/:id/medical-record", middleware.RequireRole("doctor"), appointments.CreateMedicalRecord)
}
