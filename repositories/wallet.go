package repositories

import (
	"github.com/clinova/clinic-booking/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormWalletRepository struct {
	db *gorm.DB
}

func (r *gormWalletRepository) GetByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *gormWalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *gormWalletRepository) GetByIDForUpdate(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (r *gormWalletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

func (r *gormWalletRepository) Update(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

func (r *gormWalletRepository) CreateTransaction(txn *models.WalletTransaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *gormWalletRepository) GetTransactionByID(id uint) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		return nil, translate(err)
	}
	return &txn, nil
}

func (r *gormWalletRepository) GetTransactionByOrderCode(orderCode string) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.Where("order_code = ?", orderCode).First(&txn).Error; err != nil {
		return nil, translate(err)
	}
	return &txn, nil
}

func (r *gormWalletRepository) UpdateTransaction(txn *models.WalletTransaction) error {
	return r.db.Save(txn).Error
}

func (r *gormWalletRepository) ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	err := r.db.Where("wallet_id = ?", walletID).
		Order("transaction_at DESC").
		Limit(limit).Offset(offset).
		Find(&txns).Error
	return txns, err
}
