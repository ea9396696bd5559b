package service

import "errors"

// 支付
var (
	ErrPaymentInvalid              = errors.New("payment invalid")
	ErrPaymentAmountInvalid        = errors.New("payment amount out of provider range")
	ErrPaymentCurrencyInvalid      = errors.New("payment currency not supported by provider")
	ErrPaymentNotFound             = errors.New("payment not found")
	ErrPaymentCreateFailed         = errors.New("payment create failed")
	ErrPaymentUpdateFailed         = errors.New("payment update failed")
	ErrPaymentProviderNotSupported = errors.New("payment provider not supported")
	ErrPaymentGatewayRequestFailed = errors.New("payment gateway request failed")
	ErrPaymentCallbackInvalid      = errors.New("payment callback invalid")
	ErrPaymentCallbackBusy         = errors.New("payment callback is being processed")
	ErrInvalidSignature            = errors.New("payment callback signature invalid")
)

// 提供方配置
var (
	ErrNoActiveProvider           = errors.New("no active payment provider")
	ErrProviderConfigNotFound     = errors.New("payment provider config not found")
	ErrProviderConfigExists       = errors.New("payment provider config already exists")
	ErrProviderConfigInactive     = errors.New("payment provider config inactive")
	ErrProviderConfigInvalid      = errors.New("payment provider config invalid")
	ErrProviderCredentialsInvalid = errors.New("payment provider credentials invalid")
	ErrProviderConfigSaveFailed   = errors.New("payment provider config save failed")
	ErrCredentialDecryptFailed    = errors.New("payment provider credentials decrypt failed")
)

// 租户令牌
var (
	ErrTenantTokenInvalid = errors.New("tenant token invalid")
	ErrTenantForbidden    = errors.New("tenant forbidden")
)
