package repositories

import (
	"errors"
	"time"

	"github.com/clinova/clinic-booking/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique constraint,
// such as a reused wallet transaction order code.
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	// UpdateLockout writes only the lockout columns so login attempts never
	// touch the rest of the profile.
	UpdateLockout(userID uint, failedAttempts int, lockedUntil *time.Time, permanentlyLocked bool) error
}

type WalletRepository interface {
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) (*models.Wallet, error)
	// GetByIDForUpdate locks the wallet row for the duration of the enclosing
	// transaction. Only meaningful inside TxManager.WithinTransaction.
	GetByIDForUpdate(id uint) (*models.Wallet, error)
	Create(wallet *models.Wallet) error
	Update(wallet *models.Wallet) error
	CreateTransaction(txn *models.WalletTransaction) error
	GetTransactionByID(id uint) (*models.WalletTransaction, error)
	GetTransactionByOrderCode(orderCode string) (*models.WalletTransaction, error)
	UpdateTransaction(txn *models.WalletTransaction) error
	ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error)
}

type AppointmentRepository interface {
	GetByID(id uint) (*models.Appointment, error)
	Create(appointment *models.Appointment) error
	Update(appointment *models.Appointment) error
	// FindBlocking returns the doctor's appointments in a blocking status that
	// overlap [start, end). excludeID lets an update check against itself.
	FindBlocking(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error)
	// FindBlockingForUpdate is FindBlocking with row locks, used inside the
	// booking transaction so two concurrent creates serialize on the range.
	FindBlockingForUpdate(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error)
	ListByDoctor(doctorID uint) ([]models.Appointment, error)
	ListByPatient(patientID uint) ([]models.Appointment, error)
	ListByDoctorAndDate(doctorID uint, day time.Time) ([]models.Appointment, error)
	CreateMedicalRecord(record *models.MedicalRecord) error
	HasMedicalRecord(appointmentID uint) (bool, error)
	CreateReview(review *models.Review) error
	HasReview(appointmentID uint) (bool, error)
}

// Repositories bundles every repository bound to the same database handle.
type Repositories struct {
	Users        UserRepository
	Wallets      WalletRepository
	Appointments AppointmentRepository
}

// TxManager runs a closure with all repositories bound to one database
// transaction. The closure's error rolls everything back.
type TxManager interface {
	WithinTransaction(fn func(r *Repositories) error) error
}

// New builds GORM-backed repositories on the given handle.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:        &gormUserRepository{db: db},
		Wallets:      &gormWalletRepository{db: db},
		Appointments: &gormAppointmentRepository{db: db},
	}
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithinTransaction(fn func(r *Repositories) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
