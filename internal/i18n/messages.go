package i18n

var catalog = map[string]map[string]string{
	LocaleTW: {
		"error.bad_request":                    "請求參數錯誤",
		"error.unauthorized":                   "未登入或登入已失效",
		"error.forbidden":                      "沒有權限執行此操作",
		"error.not_found":                      "資源不存在",
		"error.internal":                       "伺服器內部錯誤",
		"error.too_many_requests":              "請求過於頻繁，請稍後再試",
		"error.rate_limited":                   "請求過於頻繁，請 %d 秒後再試",
		"error.auth_header_missing":            "缺少授權標頭",
		"error.auth_header_invalid":            "授權標頭格式錯誤",
		"error.token_invalid":                  "令牌無效或已過期",
		"error.jwt_secret_missing":             "伺服器未設定令牌密鑰",
		"error.tenant_mismatch":                "不可操作其他主辦方的資料",
		"error.authz_unavailable":              "權限服務暫時不可用",
		"error.payment_invalid":                "支付參數錯誤",
		"error.payment_amount_invalid":         "支付金額超出支付提供方允許範圍",
		"error.payment_currency_invalid":       "支付提供方不支援此幣別",
		"error.payment_not_found":              "支付記錄不存在",
		"error.payment_create_failed":          "建立支付失敗",
		"error.payment_update_failed":          "更新支付失敗",
		"error.payment_fetch_failed":           "查詢支付失敗",
		"error.payment_provider_not_supported": "不支援的支付提供方",
		"error.payment_gateway_failed":         "支付提供方請求失敗",
		"error.no_active_provider":             "尚未啟用任何支付提供方",
		"error.provider_config_not_found":      "支付提供方設定不存在",
		"error.provider_config_exists":         "此支付提供方已設定",
		"error.provider_config_inactive":       "停用中的設定不可設為預設",
		"error.provider_config_invalid":        "支付提供方設定錯誤",
		"error.provider_credentials_invalid":   "支付提供方憑證格式錯誤",
		"error.provider_config_save_failed":    "儲存支付提供方設定失敗",
		"error.provider_config_fetch_failed":   "查詢支付提供方設定失敗",
		"error.credential_integrity":           "支付憑證無法解密，請重新設定",
	},
	LocaleZH: {
		"error.bad_request":                    "请求参数错误",
		"error.unauthorized":                   "未登录或登录已失效",
		"error.forbidden":                      "没有权限执行此操作",
		"error.not_found":                      "资源不存在",
		"error.internal":                       "服务器内部错误",
		"error.too_many_requests":              "请求过于频繁，请稍后再试",
		"error.rate_limited":                   "请求过于频繁，请 %d 秒后再试",
		"error.auth_header_missing":            "缺少授权头",
		"error.auth_header_invalid":            "授权头格式错误",
		"error.token_invalid":                  "令牌无效或已过期",
		"error.jwt_secret_missing":             "服务器未配置令牌密钥",
		"error.tenant_mismatch":                "不可操作其他主办方的数据",
		"error.authz_unavailable":              "权限服务暂时不可用",
		"error.payment_invalid":                "支付参数错误",
		"error.payment_amount_invalid":         "支付金额超出支付提供方允许范围",
		"error.payment_currency_invalid":       "支付提供方不支持该币种",
		"error.payment_not_found":              "支付记录不存在",
		"error.payment_create_failed":          "创建支付失败",
		"error.payment_update_failed":          "更新支付失败",
		"error.payment_fetch_failed":           "查询支付失败",
		"error.payment_provider_not_supported": "不支持的支付提供方",
		"error.payment_gateway_failed":         "支付提供方请求失败",
		"error.no_active_provider":             "尚未启用任何支付提供方",
		"error.provider_config_not_found":      "支付提供方配置不存在",
		"error.provider_config_exists":         "该支付提供方已配置",
		"error.provider_config_inactive":       "停用的配置不能设为默认",
		"error.provider_config_invalid":        "支付提供方配置错误",
		"error.provider_credentials_invalid":   "支付提供方凭证格式错误",
		"error.provider_config_save_failed":    "保存支付提供方配置失败",
		"error.provider_config_fetch_failed":   "查询支付提供方配置失败",
		"error.credential_integrity":           "支付凭证无法解密，请重新配置",
	},
	LocaleEN: {
		"error.bad_request":                    "Invalid request parameters",
		"error.unauthorized":                   "Not signed in or session expired",
		"error.forbidden":                      "You are not allowed to perform this action",
		"error.not_found":                      "Resource not found",
		"error.internal":                       "Internal server error",
		"error.too_many_requests":              "Too many requests, please try again later",
		"error.rate_limited":                   "Too many requests, retry in %d seconds",
		"error.auth_header_missing":            "Authorization header is missing",
		"error.auth_header_invalid":            "Authorization header is malformed",
		"error.token_invalid":                  "Token is invalid or expired",
		"error.jwt_secret_missing":             "Token secret is not configured",
		"error.tenant_mismatch":                "Cannot act on another organizer's data",
		"error.authz_unavailable":              "Authorization service unavailable",
		"error.payment_invalid":                "Invalid payment parameters",
		"error.payment_amount_invalid":         "Amount is outside the provider's allowed range",
		"error.payment_currency_invalid":       "Currency is not supported by the provider",
		"error.payment_not_found":              "Payment not found",
		"error.payment_create_failed":          "Failed to create payment",
		"error.payment_update_failed":          "Failed to update payment",
		"error.payment_fetch_failed":           "Failed to load payment",
		"error.payment_provider_not_supported": "Payment provider is not supported",
		"error.payment_gateway_failed":         "Payment provider request failed",
		"error.no_active_provider":             "No active payment provider is configured",
		"error.provider_config_not_found":      "Payment provider configuration not found",
		"error.provider_config_exists":         "Payment provider is already configured",
		"error.provider_config_inactive":       "An inactive configuration cannot be the default",
		"error.provider_config_invalid":        "Invalid payment provider configuration",
		"error.provider_credentials_invalid":   "Payment provider credentials are invalid",
		"error.provider_config_save_failed":    "Failed to save payment provider configuration",
		"error.provider_config_fetch_failed":   "Failed to load payment provider configuration",
		"error.credential_integrity":           "Stored credentials cannot be decrypted, please reconfigure",
	},
}
