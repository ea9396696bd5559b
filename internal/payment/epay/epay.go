package epay

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	submitPath       = "/submit.php"
	signTypeMD5      = "MD5"
	tradeSuccess     = "TRADE_SUCCESS"
	maxTradeNoLength = 32
	maxNameLength    = 127
)

var ErrAmountMismatch = fmt.Errorf("%w: epay amount mismatch", payment.ErrCallbackInvalid)

var validate = validator.New()

// Credentials 易支付商户凭证
type Credentials struct {
	GatewayURL  string `json:"gateway_url" validate:"required,url"`     // 网关地址
	MerchantID  string `json:"merchant_id" validate:"required,numeric"` // 商户号
	MerchantKey string `json:"merchant_key" validate:"required"`        // 商户密钥
}

// ParseCredentials 解析并校验凭证
func ParseCredentials(raw payment.Credentials) (*Credentials, error) {
	creds := &Credentials{
		GatewayURL:  strings.TrimRight(raw.String("gateway_url"), "/"),
		MerchantID:  raw.String("merchant_id"),
		MerchantKey: raw.String("merchant_key"),
	}
	if err := validate.Struct(creds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed %s", payment.ErrCredentialsInvalid, verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", payment.ErrCredentialsInvalid, err)
	}
	return creds, nil
}

// Provider 易支付（页面跳转 + MD5 签名）
type Provider struct{}

// New 创建提供方
func New() *Provider {
	return &Provider{}
}

// Describe 元信息
func (p *Provider) Describe() payment.Descriptor {
	return payment.Descriptor{
		ID:               constants.PaymentProviderEpay,
		DisplayName:      "Epay",
		MinAmount:        decimal.RequireFromString("0.01"),
		MaxTradeNoLength: maxTradeNoLength,
		CredentialFields: []string{"gateway_url", "merchant_id", "merchant_key"},
	}
}

// ValidateCredentials 结构校验
func (p *Provider) ValidateCredentials(creds payment.Credentials) error {
	_, err := ParseCredentials(creds)
	return err
}

// CreatePayment 构建 submit.php 跳转
func (p *Provider) CreatePayment(ctx context.Context, raw payment.Credentials, req payment.CreateRequest) (*payment.CreateResult, error) {
	creds, err := ParseCredentials(raw)
	if err != nil {
		return nil, err
	}
	if err := p.Describe().CheckAmount(req.Amount.Decimal); err != nil {
		return nil, err
	}
	tradeNo := strings.TrimSpace(req.MerchantTradeNo)
	if tradeNo == "" || len(tradeNo) > maxTradeNoLength {
		return nil, fmt.Errorf("%w: merchant trade no must be 1-%d chars", payment.ErrRequestInvalid, maxTradeNoLength)
	}
	if strings.TrimSpace(req.CallbackURL) == "" {
		return nil, fmt.Errorf("%w: callback url is required", payment.ErrRequestInvalid)
	}
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		name = strings.TrimSpace(req.Description)
	}
	if name == "" {
		name = tradeNo
	}
	returnURL := strings.TrimSpace(req.ReturnURL)
	if returnURL == "" {
		returnURL = strings.TrimSpace(req.CallbackURL)
	}

	params := map[string]string{
		"pid":          creds.MerchantID,
		"type":         strings.TrimSpace(req.PaymentMethod),
		"out_trade_no": tradeNo,
		"notify_url":   strings.TrimSpace(req.CallbackURL),
		"return_url":   returnURL,
		"name":         truncateRunes(name, maxNameLength),
		"money":        req.Amount.Decimal.StringFixed(2),
	}
	if params["type"] == "" {
		delete(params, "type")
	}
	params["sign"] = signMD5(buildSignContent(params) + creds.MerchantKey)
	params["sign_type"] = signTypeMD5

	action := creds.GatewayURL + submitPath
	query := url.Values{}
	outbound := make(map[string]interface{}, len(params))
	for key, value := range params {
		query.Set(key, value)
		outbound[key] = value
	}
	return &payment.CreateResult{
		RedirectURL: action + "?" + query.Encode(),
		FormAction:  action,
		FormParams:  params,
		Raw: map[string]interface{}{
			"action": action,
			"params": outbound,
		},
	}, nil
}

// ValidateCallback 验证回调签名
func (p *Provider) ValidateCallback(cb payment.Callback, raw payment.Credentials) bool {
	creds, err := ParseCredentials(raw)
	if err != nil {
		return false
	}
	params := cb.Flatten()
	sign := strings.TrimSpace(params["sign"])
	if sign == "" {
		return false
	}
	if pid := strings.TrimSpace(params["pid"]); pid != "" && pid != creds.MerchantID {
		return false
	}
	expected := signMD5(buildSignContent(params) + creds.MerchantKey)
	return strings.EqualFold(expected, sign)
}

// CallbackTradeNo 回调中的商户交易号
func (p *Provider) CallbackTradeNo(cb payment.Callback) string {
	return strings.TrimSpace(cb.Value("out_trade_no"))
}

// ProcessCallback 映射 trade_status
func (p *Provider) ProcessCallback(cb payment.Callback, pay *models.Payment) (*payment.CallbackResult, error) {
	if pay == nil {
		return nil, fmt.Errorf("%w: payment is nil", payment.ErrCallbackInvalid)
	}
	if p.CallbackTradeNo(cb) != pay.MerchantTradeNo {
		return nil, fmt.Errorf("%w: trade no mismatch", payment.ErrCallbackInvalid)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(cb.Value("money")))
	if err != nil {
		return nil, fmt.Errorf("%w: money is not numeric", payment.ErrCallbackInvalid)
	}
	if !amount.Round(2).Equal(pay.FinalAmount.Decimal) {
		return nil, fmt.Errorf("%w: %s != %s", ErrAmountMismatch, amount.StringFixed(2), pay.FinalAmount.String())
	}

	response := models.JSON{}
	for key, value := range cb.Flatten() {
		response[key] = value
	}
	status := constants.PaymentStatusFailed
	if strings.TrimSpace(cb.Value("trade_status")) == tradeSuccess {
		status = constants.PaymentStatusCompleted
	}
	return &payment.CallbackResult{
		Status:                status,
		ProviderTransactionID: strings.TrimSpace(cb.Value("trade_no")),
		PaymentMethod:         strings.TrimSpace(cb.Value("type")),
		Amount:                models.NewMoneyFromDecimal(amount),
		Message:               strings.TrimSpace(cb.Value("trade_status")),
		ProviderResponse:      response,
	}, nil
}

func buildSignContent(params map[string]string) string {
	var keys []string
	for k, v := range params {
		if v == "" {
			continue
		}
		if k == "sign" || k == "sign_type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(pairs, "&")
}

func signMD5(content string) string {
	sum := md5.Sum([]byte(content))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
