package repository

import (
	"github.com/tixgate/internal/models"

	"gorm.io/gorm"
)

// PaymentTransactionRepository 支付流水数据访问接口（只追加）
type PaymentTransactionRepository interface {
	Create(txn *models.PaymentTransaction) error
	ListByPayment(organizerID, paymentID uint) ([]models.PaymentTransaction, error)
	CountByPayment(paymentID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPaymentTransactionRepository
}

// GormPaymentTransactionRepository GORM 实现
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository 创建支付流水仓库
func NewPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentTransactionRepository) WithTx(tx *gorm.DB) *GormPaymentTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentTransactionRepository{db: tx}
}

// Create 追加流水
func (r *GormPaymentTransactionRepository) Create(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

// ListByPayment 按租户获取支付流水（按时间正序）
func (r *GormPaymentTransactionRepository) ListByPayment(organizerID, paymentID uint) ([]models.PaymentTransaction, error) {
	if organizerID == 0 || paymentID == 0 {
		return []models.PaymentTransaction{}, nil
	}
	txns := make([]models.PaymentTransaction, 0)
	if err := r.db.Where("organizer_id = ? AND payment_id = ?", organizerID, paymentID).
		Order("id asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// CountByPayment 统计支付流水条数
func (r *GormPaymentTransactionRepository) CountByPayment(paymentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PaymentTransaction{}).Where("payment_id = ?", paymentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
