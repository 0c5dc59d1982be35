package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
)

// PaymentMethod selects how a booking is settled.
const (
	PaymentMethodWallet  = "wallet"
	PaymentMethodGateway = "gateway"
)

// AppointmentService orchestrates the booking lifecycle: conflict check,
// wallet settlement and the appointment row all commit or roll back as one
// unit.
type AppointmentService struct {
	repos   *repositories.Repositories
	tx      repositories.TxManager
	wallets *WalletService
	now     func() time.Time
}

func NewAppointmentService(repos *repositories.Repositories, tx repositories.TxManager, wallets *WalletService) *AppointmentService {
	return &AppointmentService{repos: repos, tx: tx, wallets: wallets, now: time.Now}
}

type CreateAppointmentInput struct {
	DoctorID        uint
	PatientID       uint
	StartTime       time.Time
	EndTime         time.Time
	Reason          string
	ConsultationFee float64
	PaymentMethod   string  // wallet (default) or gateway
	OrderCode       *string // required for gateway bookings
}

// Create books a slot. Wallet bookings debit the consultation fee and start
// confirmed; gateway bookings reserve the slot as pending_payment with a
// pending ledger row keyed by order code, settled later by ConfirmPayment.
func (s *AppointmentService) Create(in CreateAppointmentInput) (*models.Appointment, error) {
	if !in.EndTime.After(in.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if in.ConsultationFee < 0 {
		return nil, fmt.Errorf("%w: consultation fee cannot be negative", ErrValidation)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentMethodWallet
	}
	if in.PaymentMethod != PaymentMethodWallet && in.PaymentMethod != PaymentMethodGateway {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	if in.PaymentMethod == PaymentMethodGateway && in.OrderCode == nil {
		return nil, fmt.Errorf("%w: gateway bookings require an order code", ErrValidation)
	}

	if _, err := s.repos.Users.GetByID(in.DoctorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: doctor %d", ErrNotFound, in.DoctorID)
		}
		return nil, storageErr("load doctor", err)
	}
	patient, err := s.repos.Users.GetByID(in.PatientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: patient %d", ErrNotFound, in.PatientID)
		}
		return nil, storageErr("load patient", err)
	}

	var appointment *models.Appointment
	err = s.tx.WithinTransaction(func(r *repositories.Repositories) error {
		// Conflict check takes row locks on the overlapping range so two
		// concurrent bookings for the same window serialize here.
		engine := NewConflictEngine(r.Appointments)
		conflict, err := engine.hasConflictLocked(in.DoctorID, in.StartTime, in.EndTime, 0)
		if err != nil {
			return storageErr("check schedule conflicts", err)
		}
		if conflict {
			return ErrConflict
		}

		a := &models.Appointment{
			DoctorID:        in.DoctorID,
			PatientID:       in.PatientID,
			StartTime:       in.StartTime,
			EndTime:         in.EndTime,
			Reason:          in.Reason,
			ConsultationFee: in.ConsultationFee,
			TotalAmount:     in.ConsultationFee,
			Status:          models.StatusPendingPayment,
			PaymentStatus:   models.PaymentPending,
		}
		if err := r.Appointments.Create(a); err != nil {
			return storageErr("create appointment", err)
		}

		switch {
		case in.ConsultationFee == 0:
			a.Status = models.StatusConfirmed
			a.PaymentStatus = models.PaymentPaid
		case in.PaymentMethod == PaymentMethodWallet:
			wallet, err := r.Wallets.GetByUserID(patient.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: wallet for patient %d", ErrNotFound, patient.ID)
				}
				return storageErr("load wallet", err)
			}
			txn, err := s.wallets.applyTransaction(r.Wallets, ApplyTransactionInput{
				WalletID:      wallet.ID,
				Type:          models.TransactionDebitAppointment,
				Amount:        in.ConsultationFee,
				AppointmentID: &a.ID,
				Description:   fmt.Sprintf("Consultation fee for appointment %d", a.ID),
			})
			if err != nil {
				return err
			}
			a.WalletTransactionID = &txn.ID
			a.Status = models.StatusConfirmed
			a.PaymentStatus = models.PaymentPaid
		default: // gateway
			wallet, err := r.Wallets.GetByUserID(patient.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: wallet for patient %d", ErrNotFound, patient.ID)
				}
				return storageErr("load wallet", err)
			}
			txn, err := s.wallets.applyTransaction(r.Wallets, ApplyTransactionInput{
				WalletID:      wallet.ID,
				Type:          models.TransactionDebitAppointment,
				Amount:        in.ConsultationFee,
				Status:        models.TransactionPending,
				AppointmentID: &a.ID,
				OrderCode:     in.OrderCode,
				Description:   fmt.Sprintf("Gateway payment for appointment %d", a.ID),
			})
			if err != nil {
				return err
			}
			a.WalletTransactionID = &txn.ID
		}

		if err := r.Appointments.Update(a); err != nil {
			return storageErr("update appointment", err)
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// UpdateStatus applies one lifecycle transition. Cancelling or rejecting a
// paid appointment before delivery issues a compensating refund; completion
// unlocks the review and medical record.
func (s *AppointmentService) UpdateStatus(appointmentID uint, newStatus models.AppointmentStatus) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.tx.WithinTransaction(func(r *repositories.Repositories) error {
		a, err := r.Appointments.GetByID(appointmentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: appointment %d", ErrNotFound, appointmentID)
			}
			return storageErr("load appointment", err)
		}
		if !a.CanTransition(newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, newStatus)
		}

		if (newStatus == models.StatusCancelled || newStatus == models.StatusRejected) &&
			a.PaymentStatus == models.PaymentPending && a.WalletTransactionID != nil {
			reserved, err := r.Wallets.GetTransactionByID(*a.WalletTransactionID)
			if err != nil {
				return storageErr("load reserved transaction", err)
			}
			// Void the reservation so a late gateway callback cannot settle
			// a charge against a cancelled booking.
			if reserved.Status == models.TransactionPending {
				reserved.Status = models.TransactionFailed
				if err := r.Wallets.UpdateTransaction(reserved); err != nil {
					return storageErr("void reserved transaction", err)
				}
			}
		}

		if (newStatus == models.StatusCancelled || newStatus == models.StatusRejected) &&
			a.PaymentStatus == models.PaymentPaid && a.WalletTransactionID != nil {
			original, err := r.Wallets.GetTransactionByID(*a.WalletTransactionID)
			if err != nil {
				return storageErr("load settled transaction", err)
			}
			if original.Status == models.TransactionCompleted {
				if _, err := s.wallets.applyTransaction(r.Wallets, ApplyTransactionInput{
					WalletID:      original.WalletID,
					Type:          models.TransactionRefund,
					Amount:        original.Amount,
					AppointmentID: &a.ID,
					Description:   fmt.Sprintf("Refund for appointment %d", a.ID),
				}); err != nil {
					return err
				}
				a.PaymentStatus = models.PaymentRefunded
			}
		}

		a.Status = newStatus
		if err := r.Appointments.Update(a); err != nil {
			return storageErr("update appointment", err)
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// ConfirmPayment settles a gateway booking from the payment callback: the
// pending ledger row identified by orderCode completes and the appointment
// moves to confirmed. Retried callbacks are no-ops.
func (s *AppointmentService) ConfirmPayment(orderCode string) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := s.tx.WithinTransaction(func(r *repositories.Repositories) error {
		txn, err := r.Wallets.GetTransactionByOrderCode(orderCode)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: transaction with order code %s", ErrNotFound, orderCode)
			}
			return storageErr("load transaction", err)
		}
		if txn.AppointmentID == nil {
			return fmt.Errorf("%w: order code %s is not an appointment payment", ErrValidation, orderCode)
		}
		a, err := r.Appointments.GetByID(*txn.AppointmentID)
		if err != nil {
			return storageErr("load appointment", err)
		}
		// A cancelled or rejected booking refuses late settlement; the charge
		// belongs with the gateway's dispute flow, not our ledger.
		if a.Status.IsTerminal() {
			return fmt.Errorf("%w: appointment %d is %s", ErrInvalidTransition, a.ID, a.Status)
		}

		if txn.Status == models.TransactionPending {
			// Settled by the gateway, not from wallet funds.
			wallet, err := r.Wallets.GetByIDForUpdate(txn.WalletID)
			if err != nil {
				return storageErr("lock wallet", err)
			}
			txn.BalanceBefore = wallet.Balance
			txn.BalanceAfter = wallet.Balance
			txn.Status = models.TransactionCompleted
			if err := r.Wallets.UpdateTransaction(txn); err != nil {
				return storageErr("settle transaction", err)
			}
		}
		if a.Status == models.StatusPendingPayment {
			a.Status = models.StatusConfirmed
			a.PaymentStatus = models.PaymentPaid
			if err := r.Appointments.Update(a); err != nil {
				return storageErr("update appointment", err)
			}
		}
		appointment = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

// IsDoctorBusy is a thin wrapper over the conflict engine.
func (s *AppointmentService) IsDoctorBusy(doctorID uint, start, end time.Time) (bool, error) {
	return NewConflictEngine(s.repos.Appointments).HasConflict(doctorID, start, end, 0)
}

func (s *AppointmentService) GetConflicts(doctorID uint, start, end time.Time) ([]models.Appointment, error) {
	return NewConflictEngine(s.repos.Appointments).GetConflicts(doctorID, start, end, 0)
}

func (s *AppointmentService) GetByID(id uint) (*models.Appointment, error) {
	a, err := s.repos.Appointments.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
		}
		return nil, storageErr("load appointment", err)
	}
	return a, nil
}

func (s *AppointmentService) GetByDoctor(doctorID uint) ([]models.Appointment, error) {
	return s.repos.Appointments.ListByDoctor(doctorID)
}

func (s *AppointmentService) GetByPatient(patientID uint) ([]models.Appointment, error) {
	return s.repos.Appointments.ListByPatient(patientID)
}

func (s *AppointmentService) GetByDoctorAndDate(doctorID uint, day time.Time) ([]models.Appointment, error) {
	return s.repos.Appointments.ListByDoctorAndDate(doctorID, day)
}

// SubmitReview records the single review a patient may leave once the
// appointment completed.
func (s *AppointmentService) SubmitReview(appointmentID, patientID uint, rating float64, comment string, anonymous bool) (*models.Review, error) {
	a, err := s.GetByID(appointmentID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, fmt.Errorf("%w: appointment %d does not belong to patient %d", ErrValidation, appointmentID, patientID)
	}
	if a.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: reviews open only after completion", ErrValidation)
	}
	exists, err := s.repos.Appointments.HasReview(appointmentID)
	if err != nil {
		return nil, storageErr("check existing review", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}
	review := &models.Review{
		Rating:        rating,
		Comment:       comment,
		DoctorID:      a.DoctorID,
		PatientID:     patientID,
		AppointmentID: appointmentID,
		IsAnonymous:   anonymous,
	}
	if err := s.repos.Appointments.CreateReview(review); err != nil {
		return nil, storageErr("create review", err)
	}
	return review, nil
}

// CreateMedicalRecord opens the appointment's single medical record once the
// visit completed.
func (s *AppointmentService) CreateMedicalRecord(appointmentID uint, diagnosis, prescription, notes string) (*models.MedicalRecord, error) {
	a, err := s.GetByID(appointmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: medical records open only after completion", ErrValidation)
	}
	exists, err := s.repos.Appointments.HasMedicalRecord(appointmentID)
	if err != nil {
		return nil, storageErr("check existing medical record", err)
	}
	if exists {
		return nil, ErrRecordExists
	}
	record := &models.MedicalRecord{
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Prescription:  prescription,
		Notes:         notes,
	}
	if err := s.repos.Appointments.CreateMedicalRecord(record); err != nil {
		return nil, storageErr("create medical record", err)
	}
	return record, nil
}
