package services

import (
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
)

// ConflictEngine decides whether a proposed time slot collides with an
// existing appointment on the doctor's schedule. Cancelled and rejected
// appointments never count; touching intervals never conflict.
type ConflictEngine struct {
	appointments repositories.AppointmentRepository
}

func NewConflictEngine(appointments repositories.AppointmentRepository) *ConflictEngine {
	return &ConflictEngine{appointments: appointments}
}

// HasConflict reports whether any blocking appointment overlaps
// [start, end). excludeID lets an update check against itself.
func (e *ConflictEngine) HasConflict(doctorID uint, start, end time.Time, excludeID uint) (bool, error) {
	conflicts, err := e.GetConflicts(doctorID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// GetConflicts returns the overlapping blocking appointments, used by
// schedulers to explain a rejection.
func (e *ConflictEngine) GetConflicts(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	candidates, err := e.appointments.FindBlocking(doctorID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return filterOverlapping(candidates, start, end), nil
}

// hasConflictLocked is the booking-transaction variant: it takes row locks on
// the overlapping range so two concurrent creates serialize here.
func (e *ConflictEngine) hasConflictLocked(doctorID uint, start, end time.Time, excludeID uint) (bool, error) {
	candidates, err := e.appointments.FindBlockingForUpdate(doctorID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(filterOverlapping(candidates, start, end)) > 0, nil
}

func filterOverlapping(candidates []models.Appointment, start, end time.Time) []models.Appointment {
	var conflicts []models.Appointment
	for _, a := range candidates {
		if a.Status.IsBlocking() && a.Overlaps(start, end) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}
