package models

import (
	"time"

	"gorm.io/gorm"
)

type Wallet struct {
	gorm.Model
	UserID   uint    `json:"user_id" gorm:"uniqueIndex"`
	User     User    `json:"-" gorm:"foreignKey:UserID"`
	Balance  float64 `json:"balance" gorm:"default:0"`
	Currency string  `json:"currency" gorm:"size:3;default:'VND'"`
	IsActive bool    `json:"is_active" gorm:"default:true"`
}

type TransactionType string

const (
	TransactionDeposit          TransactionType = "deposit"
	TransactionDebitAppointment TransactionType = "debit_appointment"
	TransactionRefund           TransactionType = "refund"
	TransactionTransferIn       TransactionType = "transfer_in"
	TransactionTransferOut      TransactionType = "transfer_out"
)

// IsDebit reports whether the type decreases the wallet balance. Amounts are
// stored positive; the type carries the direction.
func (t TransactionType) IsDebit() bool {
	return t == TransactionDebitAppointment || t == TransactionTransferOut
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// WalletTransaction is an append-only ledger entry. Completed rows are never
// mutated; corrections happen through compensating entries.
type WalletTransaction struct {
	gorm.Model
	WalletID      uint              `json:"wallet_id" gorm:"index"`
	Wallet        Wallet            `json:"-" gorm:"foreignKey:WalletID"`
	Type          TransactionType   `json:"type" gorm:"size:30"`
	Amount        float64           `json:"amount"`
	BalanceBefore float64           `json:"balance_before"`
	BalanceAfter  float64           `json:"balance_after"`
	Status        TransactionStatus `json:"status" gorm:"size:20"`
	AppointmentID *uint             `json:"appointment_id,omitempty"`
	OrderCode     *string           `json:"order_code,omitempty" gorm:"uniqueIndex"`
	Description   string            `json:"description"`
	TransactionAt time.Time         `json:"transaction_at"`
}

// SignedAmount returns the balance delta this entry applies.
func (t *WalletTransaction) SignedAmount() float64 {
	if t.Type.IsDebit() {
		return -t.Amount
	}
	return t.Amount
}
