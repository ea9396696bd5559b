package ecpay

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// FieldCheckMacValue 签名字段
const FieldCheckMacValue = "CheckMacValue"

// GenerateCheckMacValue 计算 CheckMacValue
//
// 参数按名称排序后拼接，首尾包裹 HashKey/HashIV，URL 编码后转小写，再做 SHA-256 并输出大写十六进制。
func GenerateCheckMacValue(params map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == FieldCheckMacValue {
			continue
		}
		keys = append(keys, key)
	}
	// 与 ECPay 验签端一致：按小写键名排序，amount/eci 等小写键排在 ItemName 之前
	sort.Slice(keys, func(i, j int) bool {
		li, lj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if li == lj {
			return keys[i] < keys[j]
		}
		return li < lj
	})

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(hashKey)
	for _, key := range keys {
		b.WriteString("&")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(params[key])
	}
	b.WriteString("&HashIV=")
	b.WriteString(hashIV)

	encoded := strings.ToLower(encodeForMac(b.String()))
	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifyCheckMacValue 重新计算签名并严格比对
func VerifyCheckMacValue(params map[string]string, hashKey, hashIV string) bool {
	carried, ok := params[FieldCheckMacValue]
	if !ok || carried == "" {
		return false
	}
	return GenerateCheckMacValue(params, hashKey, hashIV) == carried
}

// encodeForMac 空格编码为 +，并保证 '!()* 以百分号形式出现
func encodeForMac(raw string) string {
	encoded := url.QueryEscape(raw)
	return macEscaper.Replace(encoded)
}

var macEscaper = strings.NewReplacer(
	"'", "%27",
	"!", "%21",
	"(", "%28",
	")", "%29",
	"*", "%2A",
)
