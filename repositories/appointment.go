package repositories

import (
	"time"

	"github.com/clinova/clinic-booking/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormAppointmentRepository struct {
	db *gorm.DB
}

func (r *gormAppointmentRepository) GetByID(id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.First(&appointment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &appointment, nil
}

func (r *gormAppointmentRepository) Create(appointment *models.Appointment) error {
	return r.db.Create(appointment).Error
}

func (r *gormAppointmentRepository) Update(appointment *models.Appointment) error {
	return r.db.Save(appointment).Error
}

func (r *gormAppointmentRepository) blockingQuery(doctorID uint, start, end time.Time, excludeID uint) *gorm.DB {
	query := r.db.Model(&models.Appointment{}).
		Where("doctor_id = ? AND status IN ?", doctorID, models.BlockingStatuses()).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	return query
}

func (r *gormAppointmentRepository) FindBlocking(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.blockingQuery(doctorID, start, end, excludeID).Find(&appointments).Error
	return appointments, err
}

func (r *gormAppointmentRepository) FindBlockingForUpdate(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.blockingQuery(doctorID, start, end, excludeID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&appointments).Error
	return appointments, err
}

func (r *gormAppointmentRepository) ListByDoctor(doctorID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("doctor_id = ?", doctorID).Order("start_time").Find(&appointments).Error
	return appointments, err
}

func (r *gormAppointmentRepository) ListByPatient(patientID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("patient_id = ?", patientID).Order("start_time").Find(&appointments).Error
	return appointments, err
}

func (r *gormAppointmentRepository) ListByDoctorAndDate(doctorID uint, day time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var appointments []models.Appointment
	err := r.db.Where("doctor_id = ? AND start_time >= ? AND start_time < ?", doctorID, dayStart, dayEnd).
		Order("start_time").Find(&appointments).Error
	return appointments, err
}

func (r *gormAppointmentRepository) CreateMedicalRecord(record *models.MedicalRecord) error {
	return r.db.Create(record).Error
}

func (r *gormAppointmentRepository) HasMedicalRecord(appointmentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.MedicalRecord{}).
		Where("appointment_id = ? AND deleted_at IS NULL", appointmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormAppointmentRepository) CreateReview(review *models.Review) error {
	return r.db.Create(review).Error
}

func (r *gormAppointmentRepository) HasReview(appointmentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("appointment_id = ? AND deleted_at IS NULL", appointmentID).
		Count(&count).Error
	return count > 0, err
}
