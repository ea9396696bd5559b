package repository

import (
	"errors"
	"strings"

	"github.com/tixgate/internal/models"

	"gorm.io/gorm"
)

// PaymentProviderConfigRepository 支付提供方配置数据访问接口
type PaymentProviderConfigRepository interface {
	Create(cfg *models.PaymentProviderConfig) error
	Update(cfg *models.PaymentProviderConfig) error
	GetByID(organizerID, id uint) (*models.PaymentProviderConfig, error)
	GetByProvider(organizerID uint, providerID string) (*models.PaymentProviderConfig, error)
	GetActiveByProvider(organizerID uint, providerID string) (*models.PaymentProviderConfig, error)
	GetActiveDefault(organizerID uint) (*models.PaymentProviderConfig, error)
	GetFirstActive(organizerID uint) (*models.PaymentProviderConfig, error)
	List(filter PaymentProviderConfigListFilter) ([]models.PaymentProviderConfig, error)
	CountByOrganizer(organizerID uint) (int64, error)
	ClearDefault(organizerID uint, exceptID uint) error
	WithTx(tx *gorm.DB) *GormPaymentProviderConfigRepository
}

// GormPaymentProviderConfigRepository GORM 实现
type GormPaymentProviderConfigRepository struct {
	db *gorm.DB
}

// NewPaymentProviderConfigRepository 创建提供方配置仓库
func NewPaymentProviderConfigRepository(db *gorm.DB) *GormPaymentProviderConfigRepository {
	return &GormPaymentProviderConfigRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentProviderConfigRepository) WithTx(tx *gorm.DB) *GormPaymentProviderConfigRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentProviderConfigRepository{db: tx}
}

// Create 创建配置
func (r *GormPaymentProviderConfigRepository) Create(cfg *models.PaymentProviderConfig) error {
	return r.db.Create(cfg).Error
}

// Update 保存配置
func (r *GormPaymentProviderConfigRepository) Update(cfg *models.PaymentProviderConfig) error {
	return r.db.Save(cfg).Error
}

// GetByID 按租户获取配置
func (r *GormPaymentProviderConfigRepository) GetByID(organizerID, id uint) (*models.PaymentProviderConfig, error) {
	if organizerID == 0 || id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ? AND organizer_id = ?", id, organizerID))
}

// GetByProvider 按租户与提供方获取配置（含已停用）
func (r *GormPaymentProviderConfigRepository) GetByProvider(organizerID uint, providerID string) (*models.PaymentProviderConfig, error) {
	providerID = strings.TrimSpace(providerID)
	if organizerID == 0 || providerID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("organizer_id = ? AND provider_id = ?", organizerID, providerID))
}

// GetActiveByProvider 按租户与提供方获取启用中的配置
func (r *GormPaymentProviderConfigRepository) GetActiveByProvider(organizerID uint, providerID string) (*models.PaymentProviderConfig, error) {
	providerID = strings.TrimSpace(providerID)
	if organizerID == 0 || providerID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("organizer_id = ? AND provider_id = ? AND is_active = ?", organizerID, providerID, true))
}

// GetActiveDefault 获取租户启用中的默认配置
func (r *GormPaymentProviderConfigRepository) GetActiveDefault(organizerID uint) (*models.PaymentProviderConfig, error) {
	if organizerID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("organizer_id = ? AND is_active = ? AND is_default = ?", organizerID, true, true))
}

// GetFirstActive 获取租户任一启用中的配置（ID 最小）
func (r *GormPaymentProviderConfigRepository) GetFirstActive(organizerID uint) (*models.PaymentProviderConfig, error) {
	if organizerID == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("organizer_id = ? AND is_active = ?", organizerID, true).Order("id asc"))
}

// List 租户配置列表
func (r *GormPaymentProviderConfigRepository) List(filter PaymentProviderConfigListFilter) ([]models.PaymentProviderConfig, error) {
	if filter.OrganizerID == 0 {
		return []models.PaymentProviderConfig{}, nil
	}
	query := r.db.Model(&models.PaymentProviderConfig{}).Where("organizer_id = ?", filter.OrganizerID)
	if filter.ProviderID != "" {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var configs []models.PaymentProviderConfig
	if err := query.Order("is_default desc, id asc").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// CountByOrganizer 统计租户配置数量（含已停用）
func (r *GormPaymentProviderConfigRepository) CountByOrganizer(organizerID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PaymentProviderConfig{}).Where("organizer_id = ?", organizerID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ClearDefault 清除租户其他配置的默认标记
func (r *GormPaymentProviderConfigRepository) ClearDefault(organizerID uint, exceptID uint) error {
	query := r.db.Model(&models.PaymentProviderConfig{}).
		Where("organizer_id = ? AND is_default = ?", organizerID, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}

func (r *GormPaymentProviderConfigRepository) first(query *gorm.DB) (*models.PaymentProviderConfig, error) {
	var cfg models.PaymentProviderConfig
	if err := query.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}
