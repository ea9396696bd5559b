package models

import (
	"time"
)

// Payment 支付记录
type Payment struct {
	ID                    uint       `gorm:"primarykey" json:"id"`                                             // 主键
	MerchantTradeNo       string     `gorm:"size:64;uniqueIndex;not null" json:"merchant_trade_no"`            // 商户交易号（全局唯一）
	OrganizerID           uint       `gorm:"index;not null" json:"organizer_id"`                               // 主办方（租户）ID
	ResourceType          string     `gorm:"size:32;index:idx_payment_resource;not null" json:"resource_type"` // 支付对象类型
	ResourceID            string     `gorm:"size:64;index:idx_payment_resource;not null" json:"resource_id"`   // 支付对象ID
	Amount                Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                        // 请求金额
	DiscountAmount        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`     // 优惠金额
	FinalAmount           Money      `gorm:"type:decimal(20,2);not null" json:"final_amount"`                  // 实际收款金额
	Currency              string     `gorm:"size:8;not null" json:"currency"`                                  // 币种
	Description           string     `gorm:"type:text" json:"description"`                                     // 描述
	ProviderID            string     `gorm:"size:32;index;not null" json:"provider_id"`                        // 支付提供方
	ProviderConfigID      uint       `gorm:"index" json:"provider_config_id"`                                  // 提供方配置ID
	ProviderTransactionID string     `gorm:"size:128;index" json:"provider_transaction_id"`                    // 第三方交易号（回调后写入）
	PaymentMethod         string     `gorm:"size:32" json:"payment_method"`                                    // 支付方式
	ProviderResponse      JSON       `gorm:"type:json" json:"provider_response"`                               // 第三方原始数据
	RedirectURL           string     `gorm:"type:text" json:"redirect_url"`                                    // 跳转链接
	Metadata              JSON       `gorm:"type:json" json:"metadata"`                                        // 业务附加数据
	Status                string     `gorm:"size:16;index;not null" json:"status"`                             // 支付状态
	PaidAt                *time.Time `gorm:"index" json:"paid_at"`                                             // 支付完成时间
	CallbackAt            *time.Time `gorm:"index" json:"callback_at"`                                         // 最近回调时间
	CreatedAt             time.Time  `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt             time.Time  `gorm:"index" json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
