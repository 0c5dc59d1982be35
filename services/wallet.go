package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
)

// WalletService owns the balance ledger: every balance change goes through
// ApplyTransaction, which records an immutable transaction row with
// before/after snapshots in the same database transaction as the balance
// update.
type WalletService struct {
	repos *repositories.Repositories
	tx    repositories.TxManager
	now   func() time.Time
}

func NewWalletService(repos *repositories.Repositories, tx repositories.TxManager) *WalletService {
	return &WalletService{repos: repos, tx: tx, now: time.Now}
}

// ApplyTransactionInput describes one ledger operation. Amount is always
// positive; Type carries the direction. OrderCode deduplicates retried
// external operations.
type ApplyTransactionInput struct {
	WalletID      uint
	Type          models.TransactionType
	Amount        float64
	Status        models.TransactionStatus // defaults to completed
	AppointmentID *uint
	OrderCode     *string
	Description   string
}

// ApplyTransaction runs the ledger operation in its own database transaction.
// When two retries carrying the same order code race past the idempotency
// pre-read, the unique index rejects the loser; its transaction rolls back and
// the winner's row is returned instead.
func (s *WalletService) ApplyTransaction(in ApplyTransactionInput) (*models.WalletTransaction, error) {
	var out *models.WalletTransaction
	err := s.tx.WithinTransaction(func(r *repositories.Repositories) error {
		txn, err := s.applyTransaction(r.Wallets, in)
		if err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) && in.OrderCode != nil {
			return s.GetTransactionByOrderCode(*in.OrderCode)
		}
		return nil, err
	}
	return out, nil
}

// applyTransaction performs the ledger operation against the given repository,
// which callers bind to an open transaction. The wallet row is locked for the
// duration so concurrent debits cannot lose updates.
func (s *WalletService) applyTransaction(wallets repositories.WalletRepository, in ApplyTransactionInput) (*models.WalletTransaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.Status == "" {
		in.Status = models.TransactionCompleted
	}

	// Retried external operations return the original row untouched.
	if in.OrderCode != nil {
		existing, err := wallets.GetTransactionByOrderCode(*in.OrderCode)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, storageErr("look up order code", err)
		}
	}

	wallet, err := wallets.GetByIDForUpdate(in.WalletID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: wallet %d", ErrNotFound, in.WalletID)
		}
		return nil, storageErr("lock wallet", err)
	}
	if !wallet.IsActive {
		return nil, ErrWalletInactive
	}

	txn := &models.WalletTransaction{
		WalletID:      wallet.ID,
		Type:          in.Type,
		Amount:        in.Amount,
		Status:        in.Status,
		AppointmentID: in.AppointmentID,
		OrderCode:     in.OrderCode,
		Description:   in.Description,
		TransactionAt: s.now(),
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance,
	}

	// Pending rows reserve an order code for later settlement and leave the
	// balance untouched.
	if in.Status == models.TransactionCompleted {
		if in.Type.IsDebit() && wallet.Balance < in.Amount {
			return nil, ErrInsufficientFunds
		}
		txn.BalanceAfter = wallet.Balance + txn.SignedAmount()
		wallet.Balance = txn.BalanceAfter
		if err := wallets.Update(wallet); err != nil {
			return nil, storageErr("update wallet balance", err)
		}
	}

	if err := wallets.CreateTransaction(txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
		return nil, storageErr("create wallet transaction", err)
	}
	return txn, nil
}

// UpdateTransactionStatusByOrderCode settles a transaction created earlier
// with an order code, typically from an asynchronous payment-gateway
// callback. Completing a pending credit applies its amount to the wallet;
// snapshot overrides let the gateway dictate the recorded balances.
func (s *WalletService) UpdateTransactionStatusByOrderCode(orderCode string, status models.TransactionStatus, balanceBefore, balanceAfter *float64) (*models.WalletTransaction, error) {
	var out *models.WalletTransaction
	err := s.tx.WithinTransaction(func(r *repositories.Repositories) error {
		txn, err := r.Wallets.GetTransactionByOrderCode(orderCode)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: transaction with order code %s", ErrNotFound, orderCode)
			}
			return storageErr("load transaction", err)
		}
		if txn.Status == status {
			out = txn
			return nil
		}
		if txn.Status != models.TransactionPending {
			return fmt.Errorf("%w: transaction %d already %s", ErrValidation, txn.ID, txn.Status)
		}

		if status == models.TransactionCompleted {
			wallet, err := r.Wallets.GetByIDForUpdate(txn.WalletID)
			if err != nil {
				return storageErr("lock wallet", err)
			}
			if txn.Type.IsDebit() {
				// Pending appointment debits are settled by the gateway, not
				// from wallet funds; the balance stays put.
				txn.BalanceBefore = wallet.Balance
				txn.BalanceAfter = wallet.Balance
			} else {
				if !wallet.IsActive {
					return ErrWalletInactive
				}
				txn.BalanceBefore = wallet.Balance
				txn.BalanceAfter = wallet.Balance + txn.SignedAmount()
				wallet.Balance = txn.BalanceAfter
				if err := r.Wallets.Update(wallet); err != nil {
					return storageErr("update wallet balance", err)
				}
			}
			if balanceBefore != nil {
				txn.BalanceBefore = *balanceBefore
			}
			if balanceAfter != nil {
				txn.BalanceAfter = *balanceAfter
			}
		}

		txn.Status = status
		if err := r.Wallets.UpdateTransaction(txn); err != nil {
			return storageErr("update transaction", err)
		}
		out = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransactionByOrderCode looks a ledger entry up by its idempotency key.
func (s *WalletService) GetTransactionByOrderCode(orderCode string) (*models.WalletTransaction, error) {
	txn, err := s.repos.Wallets.GetTransactionByOrderCode(orderCode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction with order code %s", ErrNotFound, orderCode)
		}
		return nil, storageErr("load transaction", err)
	}
	return txn, nil
}

// CreateWallet opens the single wallet for a user, typically at registration.
func (s *WalletService) CreateWallet(userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = "VND"
	}
	wallet := &models.Wallet{
		UserID:   userID,
		Balance:  0,
		Currency: currency,
		IsActive: true,
	}
	if err := s.repos.Wallets.Create(wallet); err != nil {
		return nil, storageErr("create wallet", err)
	}
	return wallet, nil
}

func (s *WalletService) GetWalletByUser(userID uint) (*models.Wallet, error) {
	wallet, err := s.repos.Wallets.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: wallet for user %d", ErrNotFound, userID)
		}
		return nil, storageErr("load wallet", err)
	}
	return wallet, nil
}

func (s *WalletService) GetBalance(userID uint) (float64, error) {
	wallet, err := s.GetWalletByUser(userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *WalletService) ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.Wallets.ListTransactions(walletID, limit, offset)
}
