package models

import "time"

// PaymentProviderConfig 主办方支付提供方配置
type PaymentProviderConfig struct {
	ID                   uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	OrganizerID          uint      `gorm:"uniqueIndex:uniq_provider_config_tenant;not null" json:"organizer_id"`        // 主办方（租户）ID
	ProviderID           string    `gorm:"size:32;uniqueIndex:uniq_provider_config_tenant;not null" json:"provider_id"` // 支付提供方
	DisplayName          string    `gorm:"size:128" json:"display_name"`                                                // 展示名称
	EncryptedCredentials string    `gorm:"type:text;not null" json:"-"`                                                 // 加密凭证（nonce:tag:ciphertext）
	Settings             JSON      `gorm:"type:json" json:"settings"`                                                   // 其他配置
	IsActive             bool      `gorm:"not null" json:"is_active"`                                                   // 是否启用
	IsDefault            bool      `gorm:"not null" json:"is_default"`                                                  // 是否默认
	CreatedAt            time.Time `gorm:"index" json:"created_at"`                                                     // 创建时间
	UpdatedAt            time.Time `gorm:"index" json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (PaymentProviderConfig) TableName() string {
	return "payment_provider_configs"
}
