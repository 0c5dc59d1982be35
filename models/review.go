package models

import (
	"gorm.io/gorm"
)

type Review struct {
	gorm.Model
	Rating        float64     `json:"rating" gorm:"type:decimal(2,1);not null"`
	Comment       string      `json:"comment"`
	DoctorID      uint        `json:"doctor_id"`
	Doctor        User        `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	PatientID     uint        `json:"patient_id"`
	Patient       User        `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	AppointmentID uint        `json:"appointment_id" gorm:"uniqueIndex"`
	Appointment   Appointment `json:"-" gorm:"foreignKey:AppointmentID"`
	IsAnonymous   bool        `json:"is_anonymous" gorm:"default:false"`
}

// BeforeCreate hook to clamp rating into the 1.0-5.0 range
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.Rating < 1.0 {
		r.Rating = 1.0
	} else if r.Rating > 5.0 {
		r.Rating = 5.0
	}
	return nil
}

// HasExistingReview checks whether the appointment was already reviewed.
func (r *Review) HasExistingReview(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.Model(&Review{}).
		Where("appointment_id = ? AND deleted_at IS NULL", r.AppointmentID).
		Count(&count).Error
	return count > 0, err
}
