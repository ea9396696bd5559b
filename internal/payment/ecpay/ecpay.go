package ecpay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	StagingURL    = "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5"
	ProductionURL = "https://payment.ecpay.com.tw/Cashier/AioCheckOut/V5"
)

const (
	maxTradeNoLength   = 20
	maxTradeDescLength = 200
	maxItemNameLength  = 400
	tradeDateLayout    = "2006/01/02 15:04:05"
	defaultChoose      = "ALL"
	rtnCodeSuccess     = 1
	rtnCodeCancelled   = 0
)

var (
	minAmount = decimal.NewFromInt(1)
	maxAmount = decimal.NewFromInt(99_999_999)
	// 台湾无夏令时，固定 UTC+8
	taipei = time.FixedZone("Asia/Taipei", 8*60*60)
)

var ErrAmountMismatch = fmt.Errorf("%w: ecpay amount mismatch", payment.ErrCallbackInvalid)

var validate = validator.New()

// Credentials 商户凭证
type Credentials struct {
	MerchantID  string `json:"merchant_id" validate:"required,number,max=10"`
	HashKey     string `json:"hash_key" validate:"required,alphanum"`
	HashIV      string `json:"hash_iv" validate:"required,alphanum"`
	Environment string `json:"environment" validate:"required,oneof=staging production"`
}

// ParseCredentials 解析并校验凭证
func ParseCredentials(raw payment.Credentials) (*Credentials, error) {
	creds := &Credentials{
		MerchantID:  raw.String("merchant_id"),
		HashKey:     raw.String("hash_key"),
		HashIV:      raw.String("hash_iv"),
		Environment: strings.ToLower(raw.String("environment")),
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

// ServiceURL 根据环境选择收银台地址
func (c *Credentials) ServiceURL() string {
	if c.Environment == constants.ProviderEnvProduction {
		return ProductionURL
	}
	return StagingURL
}

// Provider 绿界风格全方位金流
type Provider struct {
	now func() time.Time
}

// New 创建提供方
func New() *Provider {
	return &Provider{now: time.Now}
}

// Describe 元信息
func (p *Provider) Describe() payment.Descriptor {
	return payment.Descriptor{
		ID:               constants.PaymentProviderECPay,
		DisplayName:      "ECPay",
		MinAmount:        minAmount,
		MaxAmount:        maxAmount,
		IntegerAmount:    true,
		MaxTradeNoLength: maxTradeNoLength,
		CredentialFields: []string{"merchant_id", "hash_key", "hash_iv", "environment"},
		Currencies:       []string{constants.DefaultCurrency},
	}
}

// ValidateCredentials 结构校验
func (p *Provider) ValidateCredentials(creds payment.Credentials) error {
	_, err := ParseCredentials(creds)
	return err
}

// CreatePayment 构建 AioCheckOut 表单参数
func (p *Provider) CreatePayment(ctx context.Context, raw payment.Credentials, req payment.CreateRequest) (*payment.CreateResult, error) {
	creds, err := ParseCredentials(raw)
	if err != nil {
		return nil, err
	}
	amount := req.Amount.Decimal
	if err := p.Describe().CheckAmount(amount); err != nil {
		return nil, err
	}
	tradeNo := strings.TrimSpace(req.MerchantTradeNo)
	if tradeNo == "" || len(tradeNo) > maxTradeNoLength {
		return nil, fmt.Errorf("%w: merchant trade no must be 1-%d chars", payment.ErrRequestInvalid, maxTradeNoLength)
	}
	if strings.TrimSpace(req.CallbackURL) == "" {
		return nil, fmt.Errorf("%w: callback url is required", payment.ErrRequestInvalid)
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = p.now()
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = tradeNo
	}
	itemName := strings.TrimSpace(req.ItemName)
	if itemName == "" {
		itemName = desc
	}
	choose := strings.TrimSpace(req.PaymentMethod)
	if choose == "" {
		choose = defaultChoose
	}

	params := map[string]string{
		"MerchantID":        creds.MerchantID,
		"MerchantTradeNo":   tradeNo,
		"MerchantTradeDate": createdAt.In(taipei).Format(tradeDateLayout),
		"PaymentType":       "aio",
		"TotalAmount":       amount.Truncate(0).String(),
		"TradeDesc":         truncateRunes(desc, maxTradeDescLength),
		"ItemName":          truncateRunes(itemName, maxItemNameLength),
		"ReturnURL":         strings.TrimSpace(req.CallbackURL),
		"ChoosePayment":     choose,
		"EncryptType":       "1",
	}
	if back := resolveClientBackURL(req); back != "" {
		params["ClientBackURL"] = back
	}
	params[FieldCheckMacValue] = GenerateCheckMacValue(params, creds.HashKey, creds.HashIV)

	action := creds.ServiceURL()
	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	outbound := make(map[string]interface{}, len(params))
	for key, value := range params {
		outbound[key] = value
	}
	return &payment.CreateResult{
		RedirectURL: action + "?" + query.Encode(),
		FormAction:  action,
		FormParams:  params,
		Raw: map[string]interface{}{
			"environment": creds.Environment,
			"action":      action,
			"params":      outbound,
		},
	}, nil
}

// ValidateCallback 校验回调 CheckMacValue
func (p *Provider) ValidateCallback(cb payment.Callback, raw payment.Credentials) bool {
	creds, err := ParseCredentials(raw)
	if err != nil {
		return false
	}
	params := cb.Flatten()
	if params["MerchantID"] != "" && params["MerchantID"] != creds.MerchantID {
		return false
	}
	return VerifyCheckMacValue(params, creds.HashKey, creds.HashIV)
}

// CallbackTradeNo 回调中的商户交易号
func (p *Provider) CallbackTradeNo(cb payment.Callback) string {
	return strings.TrimSpace(cb.Value("MerchantTradeNo"))
}

// ProcessCallback 将 RtnCode 映射为统一状态
func (p *Provider) ProcessCallback(cb payment.Callback, pay *models.Payment) (*payment.CallbackResult, error) {
	if pay == nil {
		return nil, fmt.Errorf("%w: payment is nil", payment.ErrCallbackInvalid)
	}
	if p.CallbackTradeNo(cb) != pay.MerchantTradeNo {
		return nil, fmt.Errorf("%w: trade no mismatch", payment.ErrCallbackInvalid)
	}

	tradeAmt, err := cast.ToInt64E(strings.TrimSpace(cb.Value("TradeAmt")))
	if err != nil {
		return nil, fmt.Errorf("%w: TradeAmt is not numeric", payment.ErrCallbackInvalid)
	}
	amount := decimal.NewFromInt(tradeAmt)
	if !amount.Equal(pay.FinalAmount.Decimal) {
		return nil, fmt.Errorf("%w: %s != %s", ErrAmountMismatch, amount.String(), pay.FinalAmount.String())
	}

	response := models.JSON{}
	for key, value := range cb.Flatten() {
		response[key] = value
	}

	status := mapRtnCode(cb.Value("RtnCode"))
	simulated := cast.ToInt(strings.TrimSpace(cb.Value("SimulatePaid"))) == 1
	if simulated {
		response["simulated"] = true
		if environmentOf(pay) == constants.ProviderEnvProduction {
			status = constants.PaymentStatusFailed
		}
	}

	result := &payment.CallbackResult{
		Status:                status,
		ProviderTransactionID: strings.TrimSpace(cb.Value("TradeNo")),
		PaymentMethod:         strings.TrimSpace(cb.Value("PaymentType")),
		Amount:                models.NewMoneyFromDecimal(amount),
		Message:               strings.TrimSpace(cb.Value("RtnMsg")),
		ProviderResponse:      response,
	}
	if status == constants.PaymentStatusCompleted {
		if paidAt, err := time.ParseInLocation(tradeDateLayout, strings.TrimSpace(cb.Value("PaymentDate")), taipei); err == nil {
			result.PaidAt = &paidAt
		}
	}
	return result, nil
}

func mapRtnCode(raw string) string {
	code, err := cast.ToIntE(strings.TrimSpace(raw))
	if err != nil || strings.TrimSpace(raw) == "" {
		return constants.PaymentStatusFailed
	}
	switch code {
	case rtnCodeSuccess:
		return constants.PaymentStatusCompleted
	case rtnCodeCancelled:
		return constants.PaymentStatusCancelled
	default:
		return constants.PaymentStatusFailed
	}
}

func environmentOf(pay *models.Payment) string {
	if pay == nil || pay.ProviderResponse == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(cast.ToString(pay.ProviderResponse["environment"])))
}

func resolveClientBackURL(req payment.CreateRequest) string {
	if back := strings.TrimSpace(req.ReturnURL); back != "" {
		return back
	}
	if req.Settings == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(req.Settings["client_back_url"]))
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
