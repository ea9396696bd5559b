package logger

import "strings"

const (
	redactedValue     = "***"
	maxLogValueLength = 256
)

var sensitiveKeys = map[string]struct{}{
	"checkmacvalue": {},
	"sign":          {},
	"hash_key":      {},
	"hashkey":       {},
	"hash_iv":       {},
	"hashiv":        {},
	"merchant_key":  {},
	"secret":        {},
	"token":         {},
	"password":      {},
	"authorization": {},
}

// IsSensitiveKey 判断字段是否为敏感字段
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Redact 复制一份键值，屏蔽敏感字段并截断超长值
func Redact(values map[string]string) map[string]string {
	if len(values) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		if IsSensitiveKey(key) {
			out[key] = redactedValue
			continue
		}
		out[key] = Truncate(value, maxLogValueLength)
	}
	return out
}

// Truncate 按字符截断日志值
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
