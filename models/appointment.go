package models

import (
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusInProgress     AppointmentStatus = "in_progress"
	StatusCompleted      AppointmentStatus = "completed"
	StatusCancelled      AppointmentStatus = "cancelled"
	StatusRejected       AppointmentStatus = "rejected"
	StatusNoShow         AppointmentStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Appointment struct {
	gorm.Model
	DoctorID            uint              `json:"doctor_id" gorm:"index:idx_appointments_doctor_time"`
	Doctor              User              `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	PatientID           uint              `json:"patient_id" gorm:"index"`
	Patient             User              `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	StartTime           time.Time         `json:"start_time" gorm:"index:idx_appointments_doctor_time"`
	EndTime             time.Time         `json:"end_time"`
	Status              AppointmentStatus `json:"status" gorm:"size:20;index"`
	Reason              string            `json:"reason"`
	ConsultationFee     float64           `json:"consultation_fee"`
	TotalAmount         float64           `json:"total_amount"`
	PaymentStatus       PaymentStatus     `json:"payment_status" gorm:"size:20"`
	WalletTransactionID *uint             `json:"wallet_transaction_id,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPendingPayment
	}
	if a.TotalAmount == 0 {
		a.TotalAmount = a.ConsultationFee
	}
	return nil
}

// IsTerminal reports whether no further status transitions are allowed.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return false
}

// IsBlocking reports whether an appointment in this status occupies the
// doctor's schedule for conflict detection. Cancelled and rejected
// appointments free their slot.
func (s AppointmentStatus) IsBlocking() bool {
	return s != StatusCancelled && s != StatusRejected
}

// BlockingStatuses lists every status that counts toward schedule conflicts.
func BlockingStatuses() []AppointmentStatus {
	return []AppointmentStatus{
		StatusPendingPayment,
		StatusConfirmed,
		StatusInProgress,
		StatusCompleted,
		StatusNoShow,
	}
}

// CanTransition validates a status change against the appointment lifecycle:
// pending_payment -> confirmed -> in_progress -> completed, with cancelled and
// rejected reachable from any non-terminal state and no_show only from confirmed.
func (a *Appointment) CanTransition(newStatus AppointmentStatus) bool {
	if a.Status.IsTerminal() {
		return false
	}
	switch newStatus {
	case StatusCancelled, StatusRejected:
		return true
	case StatusConfirmed:
		return a.Status == StatusPendingPayment
	case StatusInProgress:
		return a.Status == StatusConfirmed
	case StatusCompleted:
		return a.Status == StatusInProgress
	case StatusNoShow:
		return a.Status == StatusConfirmed
	}
	return false
}

// Overlaps reports whether the half-open interval [StartTime, EndTime) overlaps
// [start, end). Touching intervals do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime.After(start)
}
