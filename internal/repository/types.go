package repository

import "time"

// PaymentListFilter 查询租户支付列表的过滤条件
type PaymentListFilter struct {
	Page            int
	PageSize        int
	OrganizerID     uint
	Status          string
	ProviderID      string
	ResourceType    string
	ResourceID      string
	MerchantTradeNo string
	Keyword         string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// PaymentProviderConfigListFilter 查询租户提供方配置的过滤条件
type PaymentProviderConfigListFilter struct {
	OrganizerID uint
	ProviderID  string
	ActiveOnly  bool
}
