package constants

// 支付状态常量
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
	PaymentStatusRefunded   = "refunded"
)

// 支付流水类型常量
const (
	PaymentTxnTypeCharge        = "charge"
	PaymentTxnTypeRefund        = "refund"
	PaymentTxnTypePartialRefund = "partial_refund"
	PaymentTxnTypeChargeback    = "chargeback"
)

// 支付提供方常量
const (
	PaymentProviderECPay = "ecpay"
	PaymentProviderEpay  = "epay"
)

// 支付对象类型常量
const (
	ResourceTypeEvent = "event"
)

// 提供方运行环境常量
const (
	ProviderEnvStaging    = "staging"
	ProviderEnvProduction = "production"
)

// 默认币种
const DefaultCurrency = "TWD"

// 组织成员角色常量
const (
	MemberRoleOwner   = "owner"
	MemberRoleFinance = "finance"
	MemberRoleStaff   = "staff"
)

// 队列与任务常量
const (
	QueueDefault                    = "default"
	QueueCritical                   = "critical"
	TaskPaymentRegistrationComplete = "payment:registration_complete"
	TaskPaymentNotify               = "payment:notify"
)

// 支付通知事件常量
const (
	PaymentEventCompleted = "payment.completed"
	PaymentEventFailed    = "payment.failed"
	PaymentEventCancelled = "payment.cancelled"
	PaymentEventUpdated   = "payment.updated"
)
