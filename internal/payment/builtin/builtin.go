package builtin

import (
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/payment/ecpay"
	"github.com/tixgate/internal/payment/epay"
)

// Providers 编译内置的提供方
func Providers() []payment.Provider {
	return []payment.Provider{
		ecpay.New(),
		epay.New(),
	}
}

// NewRegistry 使用内置提供方构建注册表
func NewRegistry() (*payment.Registry, error) {
	return payment.NewRegistry(Providers()...)
}
