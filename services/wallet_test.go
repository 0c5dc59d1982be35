package services

import (
	"testing"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletFixture(t *testing.T) (*memStore, *WalletService) {
	t.Helper()
	s := newMemStore()
	svc := NewWalletService(s.repos(), &memTxManager{s: s})
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return s, svc
}

func TestApplyTransactionDeposit(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 50000, IsActive: true})

	txn, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID: wallet.ID,
		Type:     models.TransactionDeposit,
		Amount:   100000,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(50000), txn.BalanceBefore)
	assert.Equal(t, float64(150000), txn.BalanceAfter)
	assert.Equal(t, models.TransactionCompleted, txn.Status)
	assert.Equal(t, float64(150000), s.wallets[wallet.ID].Balance)
}

func TestApplyTransactionInsufficientFunds(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 100000, IsActive: true})

	_, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID: wallet.ID,
		Type:     models.TransactionDebitAppointment,
		Amount:   150000,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, float64(100000), s.wallets[wallet.ID].Balance, "balance must not go negative")
	assert.Empty(t, s.transactions, "failed debit must not leave a ledger row")
}

func TestApplyTransactionValidation(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 100000, IsActive: true})

	_, err := svc.ApplyTransaction(ApplyTransactionInput{WalletID: wallet.ID, Type: models.TransactionDeposit, Amount: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ApplyTransaction(ApplyTransactionInput{WalletID: wallet.ID, Type: models.TransactionDeposit, Amount: -10})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ApplyTransaction(ApplyTransactionInput{WalletID: 999, Type: models.TransactionDeposit, Amount: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyTransactionInactiveWallet(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 100000, IsActive: false})

	_, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID: wallet.ID,
		Type:     models.TransactionDeposit,
		Amount:   10000,
	})
	assert.ErrorIs(t, err, ErrWalletInactive)
}

func TestApplyTransactionIdempotentOrderCode(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 0, IsActive: true})
	orderCode := "order-123"

	first, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID:  wallet.ID,
		Type:      models.TransactionDeposit,
		Amount:    100000,
		OrderCode: &orderCode,
	})
	require.NoError(t, err)

	second, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID:  wallet.ID,
		Type:      models.TransactionDeposit,
		Amount:    100000,
		OrderCode: &orderCode,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "retried order code returns the original row")
	assert.Equal(t, first.BalanceAfter, second.BalanceAfter)
	assert.Len(t, s.transactions, 1)
	assert.Equal(t, float64(100000), s.wallets[wallet.ID].Balance, "balance applied once")
}

// blindWalletRepo hides existing rows from a number of order-code lookups,
// reproducing a retry whose pre-read runs before the first insert commits.
type blindWalletRepo struct {
	repositories.WalletRepository
	misses *int
}

func (r *blindWalletRepo) GetTransactionByOrderCode(orderCode string) (*models.WalletTransaction, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, repositories.ErrNotFound
	}
	return r.WalletRepository.GetTransactionByOrderCode(orderCode)
}

type blindTxManager struct {
	s      *memStore
	misses int
}

func (m *blindTxManager) WithinTransaction(fn func(r *repositories.Repositories) error) error {
	snapshot := m.s.clone()
	repos := m.s.repos()
	repos.Wallets = &blindWalletRepo{WalletRepository: repos.Wallets, misses: &m.misses}
	if err := fn(repos); err != nil {
		*m.s = *snapshot
		return err
	}
	return nil
}

func TestApplyTransactionOrderCodeRaceLosesToUniqueIndex(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 0, IsActive: true})
	orderCode := "order-race"

	first, err := svc.ApplyTransaction(ApplyTransactionInput{
		WalletID:  wallet.ID,
		Type:      models.TransactionDeposit,
		Amount:    100000,
		OrderCode: &orderCode,
	})
	require.NoError(t, err)

	// The retry's pre-read misses the committed row; its insert hits the
	// unique index, the transaction rolls back and the original row returns.
	racing := NewWalletService(s.repos(), &blindTxManager{s: s, misses: 1})
	second, err := racing.ApplyTransaction(ApplyTransactionInput{
		WalletID:  wallet.ID,
		Type:      models.TransactionDeposit,
		Amount:    100000,
		OrderCode: &orderCode,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.transactions, 1)
	assert.Equal(t, float64(100000), s.wallets[wallet.ID].Balance, "losing retry must not double-apply the amount")
}

func TestLedgerInvariantBalanceMatchesLastSnapshot(t *testing.T) {
	s, svc := newWalletFixture(t)
	wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 0, IsActive: true})

	steps := []ApplyTransactionInput{
		{WalletID: wallet.ID, Type: models.TransactionDeposit, Amount: 200000},
		{WalletID: wallet.ID, Type: models.TransactionDebitAppointment, Amount: 150000},
		{WalletID: wallet.ID, Type: models.TransactionRefund, Amount: 150000},
		{WalletID: wallet.ID, Type: models.TransactionDebitAppointment, Amount: 50000},
	}

	var last *models.WalletTransaction
	for _, in := range steps {
		txn, err := svc.ApplyTransaction(in)
		require.NoError(t, err)
		assert.Equal(t, txn.BalanceBefore+txn.SignedAmount(), txn.BalanceAfter)
		last = txn
	}

	assert.Equal(t, last.BalanceAfter, s.wallets[wallet.ID].Balance)
	assert.Equal(t, float64(150000), s.wallets[wallet.ID].Balance)
}

func TestUpdateTransactionStatusByOrderCode(t *testing.T) {
	t.Run("settles a pending deposit", func(t *testing.T) {
		s, svc := newWalletFixture(t)
		wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 20000, IsActive: true})
		orderCode := "order-dep"

		pending, err := svc.ApplyTransaction(ApplyTransactionInput{
			WalletID:  wallet.ID,
			Type:      models.TransactionDeposit,
			Amount:    80000,
			Status:    models.TransactionPending,
			OrderCode: &orderCode,
		})
		require.NoError(t, err)
		assert.Equal(t, float64(20000), s.wallets[wallet.ID].Balance, "pending rows leave the balance untouched")

		settled, err := svc.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionCompleted, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, pending.ID, settled.ID)
		assert.Equal(t, models.TransactionCompleted, settled.Status)
		assert.Equal(t, float64(20000), settled.BalanceBefore)
		assert.Equal(t, float64(100000), settled.BalanceAfter)
		assert.Equal(t, float64(100000), s.wallets[wallet.ID].Balance)
	})

	t.Run("unknown order code fails", func(t *testing.T) {
		_, svc := newWalletFixture(t)
		_, err := svc.UpdateTransactionStatusByOrderCode("missing", models.TransactionCompleted, nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("repeated settlement is a no-op", func(t *testing.T) {
		s, svc := newWalletFixture(t)
		wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 0, IsActive: true})
		orderCode := "order-retry"

		_, err := svc.ApplyTransaction(ApplyTransactionInput{
			WalletID:  wallet.ID,
			Type:      models.TransactionDeposit,
			Amount:    50000,
			Status:    models.TransactionPending,
			OrderCode: &orderCode,
		})
		require.NoError(t, err)

		_, err = svc.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionCompleted, nil, nil)
		require.NoError(t, err)
		_, err = svc.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionCompleted, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, float64(50000), s.wallets[wallet.ID].Balance, "settlement applied once")
	})

	t.Run("failing a pending row keeps the balance", func(t *testing.T) {
		s, svc := newWalletFixture(t)
		wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 30000, IsActive: true})
		orderCode := "order-fail"

		_, err := svc.ApplyTransaction(ApplyTransactionInput{
			WalletID:  wallet.ID,
			Type:      models.TransactionDeposit,
			Amount:    50000,
			Status:    models.TransactionPending,
			OrderCode: &orderCode,
		})
		require.NoError(t, err)

		failed, err := svc.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionFailed, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, failed.Status)
		assert.Equal(t, float64(30000), s.wallets[wallet.ID].Balance)
	})

	t.Run("snapshot overrides from the gateway are recorded", func(t *testing.T) {
		s, svc := newWalletFixture(t)
		wallet := s.addWallet(models.Wallet{UserID: 1, Balance: 0, IsActive: true})
		orderCode := "order-override"

		_, err := svc.ApplyTransaction(ApplyTransactionInput{
			WalletID:  wallet.ID,
			Type:      models.TransactionDeposit,
			Amount:    50000,
			Status:    models.TransactionPending,
			OrderCode: &orderCode,
		})
		require.NoError(t, err)

		before, after := float64(10), float64(50010)
		settled, err := svc.UpdateTransactionStatusByOrderCode(orderCode, models.TransactionCompleted, &before, &after)
		require.NoError(t, err)
		assert.Equal(t, before, settled.BalanceBefore)
		assert.Equal(t, after, settled.BalanceAfter)
	})
}

func TestCreateWallet(t *testing.T) {
	s, svc := newWalletFixture(t)

	wallet, err := svc.CreateWallet(7, "")
	require.NoError(t, err)
	assert.Equal(t, uint(7), wallet.UserID)
	assert.Equal(t, "VND", wallet.Currency)
	assert.True(t, wallet.IsActive)
	assert.Zero(t, wallet.Balance)

	balance, err := svc.GetBalance(7)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.Len(t, s.wallets, 1)
}
