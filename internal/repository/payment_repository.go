package repository

import (
	"errors"
	"strings"

	"github.com/tixgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository 支付数据访问接口（面向租户的读取必须带 organizerID）
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByOrganizer(organizerID, id uint) (*models.Payment, error)
	GetByTradeNo(organizerID uint, tradeNo string) (*models.Payment, error)
	LockByID(id uint) (*models.Payment, error)
	ExistsTradeNo(tradeNo string) (bool, error)
	ListByOrganizer(filter PaymentListFilter) ([]models.Payment, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByOrganizer 按租户获取支付记录，跨租户视为不存在
func (r *GormPaymentRepository) GetByOrganizer(organizerID, id uint) (*models.Payment, error) {
	if organizerID == 0 || id == 0 {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.Where("id = ? AND organizer_id = ?", id, organizerID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByTradeNo 按租户与商户交易号获取支付记录
func (r *GormPaymentRepository) GetByTradeNo(organizerID uint, tradeNo string) (*models.Payment, error) {
	tradeNo = strings.TrimSpace(tradeNo)
	if organizerID == 0 || tradeNo == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("merchant_trade_no = ? AND organizer_id = ?", tradeNo, organizerID).Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// LockByID 行锁读取（需在事务内调用）
func (r *GormPaymentRepository) LockByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ExistsTradeNo 商户交易号是否已被占用（全局）
func (r *GormPaymentRepository) ExistsTradeNo(tradeNo string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Payment{}).Where("merchant_trade_no = ?", strings.TrimSpace(tradeNo)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOrganizer 租户支付列表
func (r *GormPaymentRepository) ListByOrganizer(filter PaymentListFilter) ([]models.Payment, int64, error) {
	if filter.OrganizerID == 0 {
		return []models.Payment{}, 0, nil
	}
	query := r.db.Model(&models.Payment{}).Where("organizer_id = ?", filter.OrganizerID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProviderID != "" {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.MerchantTradeNo != "" {
		query = query.Where("merchant_trade_no = ?", filter.MerchantTradeNo)
	}
	if keyword := escapeLikeKeyword(filter.Keyword); keyword != "" {
		condition, argCount := buildKeywordLikeCondition(r.db,
			[]string{"merchant_trade_no", "provider_transaction_id", "resource_id", "description"},
			"metadata", paymentMetadataSearchKeys)
		query = query.Where("("+condition+")", repeatLikeArgs("%"+keyword+"%", argCount)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var payments []models.Payment
	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
