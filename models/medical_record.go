package models

import (
	"gorm.io/gorm"
)

// MedicalRecord holds the doctor's notes for a completed appointment.
// At most one record exists per appointment.
type MedicalRecord struct {
	gorm.Model
	AppointmentID uint        `json:"appointment_id" gorm:"uniqueIndex"`
	Appointment   Appointment `json:"-" gorm:"foreignKey:AppointmentID"`
	Diagnosis     string      `json:"diagnosis"`
	Prescription  string      `json:"prescription"`
	Notes         string      `json:"notes" gorm:"type:text"`
}
