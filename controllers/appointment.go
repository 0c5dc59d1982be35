package controllers

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/clinova/clinic-booking/db"
	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/utils"
	"github.com/gofiber/fiber/v2"
)

type AppointmentController struct {
	Appointments *services.AppointmentService
}

func NewAppointmentController(appointments *services.AppointmentService) *AppointmentController {
	return &AppointmentController{Appointments: appointments}
}

type createAppointmentRequest struct {
	DoctorID        uint      `json:"doctor_id"`
	PatientID       uint      `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Reason          string    `json:"reason"`
	ConsultationFee float64   `json:"consultation_fee"`
	PaymentMethod   string    `json:"payment_method"`
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Description Book a slot with a doctor; the consultation fee is settled from the patient wallet
// @Tags appointments
// @Accept json
// @Produce json
// @Success 201 {object} models.Appointment
// @Failure 402 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments [post]
func (ctl *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	var req createAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	input := services.CreateAppointmentInput{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Reason:          req.Reason,
		ConsultationFee: req.ConsultationFee,
		PaymentMethod:   req.PaymentMethod,
	}
	if req.PaymentMethod == services.PaymentMethodGateway {
		orderCode := utils.GenerateOrderCode()
		input.OrderCode = &orderCode
	}

	appointment, err := ctl.Appointments.Create(input)
	if err != nil {
		return respondServiceError(c, "Failed to create appointment", err)
	}

	go ctl.sendBookingEmails(appointment)

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// UpdateStatus godoc
// @Summary Transition an appointment's status
// @Description Apply a lifecycle transition; early cancellation refunds the fee
// @Tags appointments
// @Accept json
// @Produce json
// @Success 200 {object} models.Appointment
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /appointments/{id}/status [patch]
func (ctl *AppointmentController) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment ID",
			Error:   err.Error(),
		})
	}

	type statusRequest struct {
		Status models.AppointmentStatus `json:"status"`
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appointment, err := ctl.Appointments.UpdateStatus(uint(id), req.Status)
	if err != nil {
		return respondServiceError(c, "Failed to update appointment status", err)
	}

	if req.Status == models.StatusCancelled || req.Status == models.StatusRejected {
		go ctl.sendCancellationEmail(appointment)
	}

	return c.JSON(appointment)
}

// GetConflicts godoc
// @Summary List conflicting appointments
// @Description List blocking appointments overlapping the proposed window
// @Tags appointments
// @Produce json
// @Success 200 {array} models.Appointment
// @Router /appointments/conflicts [get]
func (ctl *AppointmentController) GetConflicts(c *fiber.Ctx) error {
	doctorID, err := strconv.ParseUint(c.Query("doctor_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor_id",
		})
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid start time, expected RFC3339",
		})
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid end time, expected RFC3339",
		})
	}

	conflicts, err := ctl.Appointments.GetConflicts(uint(doctorID), start, end)
	if err != nil {
		return respondServiceError(c, "Failed to check conflicts", err)
	}
	return c.JSON(conflicts)
}

// GetAppointment godoc
// @Summary Get an appointment by ID
// @Tags appointments
// @Produce json
// @Success 200 {object} models.Appointment
// @Failure 404 {object} utils.ErrorResponse
// @Router /appointments/{id} [get]
func (ctl *AppointmentController) GetAppointment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment ID",
		})
	}
	appointment, err := ctl.Appointments.GetByID(uint(id))
	if err != nil {
		return respondServiceError(c, "Appointment not found", err)
	}
	return c.JSON(appointment)
}

// ListByDoctor returns a doctor's appointments, optionally for one day.
func (ctl *AppointmentController) ListByDoctor(c *fiber.Ctx) error {
	doctorID, err := strconv.ParseUint(c.Params("doctorId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor ID",
		})
	}

	if date := c.Query("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid date, expected YYYY-MM-DD",
			})
		}
		appointments, err := ctl.Appointments.GetByDoctorAndDate(uint(doctorID), day)
		if err != nil {
			return respondServiceError(c, "Failed to fetch appointments", err)
		}
		return c.JSON(appointments)
	}

	appointments, err := ctl.Appointments.GetByDoctor(uint(doctorID))
	if err != nil {
		return respondServiceError(c, "Failed to fetch appointments", err)
	}
	return c.JSON(appointments)
}

// ListByPatient returns a patient's appointments.
func (ctl *AppointmentController) ListByPatient(c *fiber.Ctx) error {
	patientID, err := strconv.ParseUint(c.Params("patientId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid patient ID",
		})
	}
	appointments, err := ctl.Appointments.GetByPatient(uint(patientID))
	if err != nil {
		return respondServiceError(c, "Failed to fetch appointments", err)
	}
	return c.JSON(appointments)
}

// SubmitReview godoc
// @Summary Review a completed appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Success 201 {object} models.Review
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/review [post]
func (ctl *AppointmentController) SubmitReview(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment ID",
		})
	}
	patientID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	type reviewRequest struct {
		Rating      float64 `json:"rating"`
		Comment     string  `json:"comment"`
		IsAnonymous bool    `json:"is_anonymous"`
	}
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	review, err := ctl.Appointments.SubmitReview(uint(id), patientID, req.Rating, req.Comment, req.IsAnonymous)
	if err != nil {
		return respondServiceError(c, "Failed to submit review", err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// CreateMedicalRecord godoc
// @Summary Attach the medical record to a completed appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Success 201 {object} models.MedicalRecord
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/medical-record [post]
func (ctl *AppointmentController) CreateMedicalRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment ID",
		})
	}

	type recordRequest struct {
		Diagnosis    string `json:"diagnosis"`
		Prescription string `json:"prescription"`
		Notes        string `json:"notes"`
	}
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	record, err := ctl.Appointments.CreateMedicalRecord(uint(id), req.Diagnosis, req.Prescription, req.Notes)
	if err != nil {
		return respondServiceError(c, "Failed to create medical record", err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (ctl *AppointmentController) sendBookingEmails(appointment *models.Appointment) {
	var patient, doctor models.User
	if err := db.DB.First(&patient, appointment.PatientID).Error; err != nil {
		log.Printf("Failed to load patient %d for booking email: %v", appointment.PatientID, err)
		return
	}
	if err := db.DB.First(&doctor, appointment.DoctorID).Error; err != nil {
		log.Printf("Failed to load doctor %d for booking email: %v", appointment.DoctorID, err)
		return
	}

	patientBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment has been booked.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Doctor:</strong> %s</li>
			<li><strong>Start Time:</strong> %s</li>
			<li><strong>End Time:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
			<li><strong>Consultation Fee:</strong> %.0f %s</li>
		</ul>
		<p>Best regards,</p>
		<p>Your Clinic Team</p>
	`, patient.Name, doctor.Name,
		appointment.StartTime.Format("2006-01-02 15:04:05"),
		appointment.EndTime.Format("2006-01-02 15:04:05"),
		appointment.Status, appointment.ConsultationFee, "VND")
	if err := utils.SendEmail(patient.Email, "Appointment Booked", patientBody); err != nil {
		log.Printf("Failed to send booking email to %s: %v", patient.Email, err)
	}

	doctorBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have a new appointment scheduled.</p>
		<ul>
			<li><strong>Patient:</strong> %s</li>
			<li><strong>Start Time:</strong> %s</li>
			<li><strong>End Time:</strong> %s</li>
		</ul>
		<p>Best regards,</p>
		<p>Your Clinic Team</p>
	`, doctor.Name, patient.Name,
		appointment.StartTime.Format("2006-01-02 15:04:05"),
		appointment.EndTime.Format("2006-01-02 15:04:05"))
	if err := utils.SendEmail(doctor.Email, "New Appointment Scheduled", doctorBody); err != nil {
		log.Printf("Failed to send booking email to %s: %v", doctor.Email, err)
	}
}

func (ctl *AppointmentController) sendCancellationEmail(appointment *models.Appointment) {
	var patient models.User
	if err := db.DB.First(&patient, appointment.PatientID).Error; err != nil {
		log.Printf("Failed to load patient %d for cancellation email: %v", appointment.PatientID, err)
		return
	}

	refundNote := ""
	if appointment.PaymentStatus == models.PaymentRefunded {
		refundNote = "<p>The consultation fee has been refunded to your wallet.</p>"
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your appointment on %s has been %s.</p>
		%s
		<p>Best regards,</p>
		<p>Your Clinic Team</p>
	`, patient.Name, appointment.StartTime.Format("2006-01-02 15:04:05"), appointment.Status, refundNote)
	if err := utils.SendEmail(patient.Email, "Appointment Update", body); err != nil {
		log.Printf("Failed to send cancellation email to %s: %v", patient.Email, err)
	}
}
