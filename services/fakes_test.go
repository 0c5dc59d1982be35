package services

import (
	"context"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
	"github.com/clinova/clinic-booking/store"
)

// memStore is an in-memory stand-in for the database. memTxManager snapshots
// it before each unit of work and restores on error, mirroring rollback.
type memStore struct {
	users        map[uint]models.User
	wallets      map[uint]models.Wallet
	transactions map[uint]models.WalletTransaction
	appointments map[uint]models.Appointment
	reviews      map[uint]models.Review
	records      map[uint]models.MedicalRecord
	nextID       uint
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uint]models.User),
		wallets:      make(map[uint]models.Wallet),
		transactions: make(map[uint]models.WalletTransaction),
		appointments: make(map[uint]models.Appointment),
		reviews:      make(map[uint]models.Review),
		records:      make(map[uint]models.MedicalRecord),
		nextID:       1,
	}
}

func (s *memStore) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	return c
}

func (s *memStore) repos() *repositories.Repositories {
	return &repositories.Repositories{
		Users:        &memUserRepo{s: s},
		Wallets:      &memWalletRepo{s: s},
		Appointments: &memAppointmentRepo{s: s},
	}
}

func (s *memStore) addUser(u models.User) models.User {
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addWallet(w models.Wallet) models.Wallet {
	if w.ID == 0 {
		w.ID = s.id()
	}
	s.wallets[w.ID] = w
	return w
}

func (s *memStore) addAppointment(a models.Appointment) models.Appointment {
	if a.ID == 0 {
		a.ID = s.id()
	}
	s.appointments[a.ID] = a
	return a
}

type memTxManager struct {
	s *memStore
}

func (m *memTxManager) WithinTransaction(fn func(r *repositories.Repositories) error) error {
	snapshot := m.s.clone()
	if err := fn(m.s.repos()); err != nil {
		*m.s = *snapshot
		return err
	}
	return nil
}

type memUserRepo struct {
	s *memStore
}

func (r *memUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memUserRepo) Create(user *models.User) error {
	user.ID = r.s.id()
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(user *models.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) UpdateLockout(userID uint, failedAttempts int, lockedUntil *time.Time, permanentlyLocked bool) error {
	u, ok := r.s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.FailedAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	u.PermanentlyLocked = permanentlyLocked
	r.s.users[userID] = u
	return nil
}

type memWalletRepo struct {
	s *memStore
}

func (r *memWalletRepo) GetByID(id uint) (*models.Wallet, error) {
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &w, nil
}

func (r *memWalletRepo) GetByUserID(userID uint) (*models.Wallet, error) {
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			wallet := w
			return &wallet, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memWalletRepo) GetByIDForUpdate(id uint) (*models.Wallet, error) {
	return r.GetByID(id)
}

func (r *memWalletRepo) Create(wallet *models.Wallet) error {
	wallet.ID = r.s.id()
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r *memWalletRepo) Update(wallet *models.Wallet) error {
	if _, ok := r.s.wallets[wallet.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r *memWalletRepo) CreateTransaction(txn *models.WalletTransaction) error {
	if txn.OrderCode != nil {
		for _, t := range r.s.transactions {
			if t.OrderCode != nil && *t.OrderCode == *txn.OrderCode {
				return repositories.ErrDuplicate
			}
		}
	}
	txn.ID = r.s.id()
	r.s.transactions[txn.ID] = *txn
	return nil
}

func (r *memWalletRepo) GetTransactionByID(id uint) (*models.WalletTransaction, error) {
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *memWalletRepo) GetTransactionByOrderCode(orderCode string) (*models.WalletTransaction, error) {
	for _, t := range r.s.transactions {
		if t.OrderCode != nil && *t.OrderCode == orderCode {
			txn := t
			return &txn, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memWalletRepo) UpdateTransaction(txn *models.WalletTransaction) error {
	if _, ok := r.s.transactions[txn.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.transactions[txn.ID] = *txn
	return nil
}

func (r *memWalletRepo) ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	for _, t := range r.s.transactions {
		if t.WalletID == walletID {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

type memAppointmentRepo struct {
	s *memStore
}

func (r *memAppointmentRepo) GetByID(id uint) (*models.Appointment, error) {
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *memAppointmentRepo) Create(appointment *models.Appointment) error {
	appointment.ID = r.s.id()
	if appointment.Status == "" {
		appointment.Status = models.StatusPendingPayment
	}
	r.s.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memAppointmentRepo) Update(appointment *models.Appointment) error {
	if _, ok := r.s.appointments[appointment.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memAppointmentRepo) FindBlocking(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID != doctorID || a.ID == excludeID {
			continue
		}
		if !a.Status.IsBlocking() {
			continue
		}
		if a.StartTime.Before(end) && a.EndTime.After(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) FindBlockingForUpdate(doctorID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error) {
	return r.FindBlocking(doctorID, start, end, excludeID)
}

func (r *memAppointmentRepo) ListByDoctor(doctorID uint) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) ListByPatient(patientID uint) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range r.s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) ListByDoctorAndDate(doctorID uint, day time.Time) ([]models.Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var out []models.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && !a.StartTime.Before(dayStart) && a.StartTime.Before(dayEnd) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) CreateMedicalRecord(record *models.MedicalRecord) error {
	record.ID = r.s.id()
	r.s.records[record.ID] = *record
	return nil
}

func (r *memAppointmentRepo) HasMedicalRecord(appointmentID uint) (bool, error) {
	for _, m := range r.s.records {
		if m.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAppointmentRepo) CreateReview(review *models.Review) error {
	review.ID = r.s.id()
	r.s.reviews[review.ID] = *review
	return nil
}

func (r *memAppointmentRepo) HasReview(appointmentID uint) (bool, error) {
	for _, rv := range r.s.reviews {
		if rv.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

// memResetStore is an in-memory ResetCodeStore for auth tests.
type memResetStore struct {
	codes map[string]string
}

func newMemResetStore() *memResetStore {
	return &memResetStore{codes: make(map[string]string)}
}

func (s *memResetStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	s.codes[email] = code
	return nil
}

func (s *memResetStore) Get(ctx context.Context, email string) (string, error) {
	code, ok := s.codes[email]
	if !ok {
		return "", store.ErrCodeNotFound
	}
	return code, nil
}

func (s *memResetStore) Delete(ctx context.Context, email string) error {
	delete(s.codes, email)
	return nil
}
