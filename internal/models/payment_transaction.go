package models

import "time"

// PaymentTransaction 支付流水（只追加，不修改）
type PaymentTransaction struct {
	ID                    uint      `gorm:"primarykey" json:"id"`                                               // 主键
	PaymentID             uint      `gorm:"index;not null" json:"payment_id"`                                   // 支付记录ID
	OrganizerID           uint      `gorm:"index:idx_payment_txn_tenant_resource;not null" json:"organizer_id"` // 主办方（租户）ID
	ResourceType          string    `gorm:"size:32;index:idx_payment_txn_tenant_resource" json:"resource_type"` // 支付对象类型
	ResourceID            string    `gorm:"size:64;index:idx_payment_txn_tenant_resource" json:"resource_id"`   // 支付对象ID
	Type                  string    `gorm:"size:16;not null" json:"type"`                                       // 流水类型
	Status                string    `gorm:"size:16;not null" json:"status"`                                     // 流水状态
	Amount                Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                          // 金额
	ProviderTransactionID string    `gorm:"size:128" json:"provider_transaction_id"`                            // 第三方交易号
	ProviderResponse      JSON      `gorm:"type:json" json:"provider_response"`                                 // 第三方原始数据
	CreatedAt             time.Time `gorm:"index" json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
