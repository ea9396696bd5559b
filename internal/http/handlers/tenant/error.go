package tenant

import (
	"errors"

	handlershared "github.com/tixgate/internal/http/handlers/shared"
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var paymentInitiateErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrPaymentAmountInvalid, code: response.CodeBadRequest, key: "error.payment_amount_invalid"},
	{target: service.ErrPaymentCurrencyInvalid, code: response.CodeBadRequest, key: "error.payment_currency_invalid"},
	{target: service.ErrNoActiveProvider, code: response.CodeBadRequest, key: "error.no_active_provider"},
	{target: service.ErrProviderConfigNotFound, code: response.CodeBadRequest, key: "error.no_active_provider"},
	{target: service.ErrPaymentProviderNotSupported, code: response.CodeBadRequest, key: "error.payment_provider_not_supported"},
	{target: service.ErrPaymentGatewayRequestFailed, code: response.CodeBadRequest, key: "error.payment_gateway_failed"},
	{target: service.ErrCredentialDecryptFailed, code: response.CodeInternal, key: "error.credential_integrity"},
}

var paymentQueryErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
}

var providerConfigErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentProviderNotSupported, code: response.CodeBadRequest, key: "error.payment_provider_not_supported"},
	{target: service.ErrProviderCredentialsInvalid, code: response.CodeBadRequest, key: "error.provider_credentials_invalid"},
	{target: service.ErrProviderConfigExists, code: response.CodeBadRequest, key: "error.provider_config_exists"},
	{target: service.ErrProviderConfigInactive, code: response.CodeBadRequest, key: "error.provider_config_inactive"},
	{target: service.ErrProviderConfigInvalid, code: response.CodeBadRequest, key: "error.provider_config_invalid"},
	{target: service.ErrProviderConfigNotFound, code: response.CodeNotFound, key: "error.provider_config_not_found"},
	{target: service.ErrCredentialDecryptFailed, code: response.CodeInternal, key: "error.credential_integrity"},
}

func respondPaymentInitiateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentInitiateErrorRules, response.CodeInternal, "error.payment_create_failed")
}

func respondPaymentQueryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "error.payment_fetch_failed")
}

func respondProviderConfigError(c *gin.Context, err error) {
	respondWithMappedError(c, err, providerConfigErrorRules, response.CodeInternal, "error.provider_config_save_failed")
}
