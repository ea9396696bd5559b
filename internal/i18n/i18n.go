package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleTW = "zh-TW"
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"

	// DefaultLocale 默认语言
	DefaultLocale = LocaleTW
)

var supportedTags = []language.Tag{
	language.MustParse(LocaleTW),
	language.MustParse(LocaleZH),
	language.MustParse(LocaleEN),
}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 依次读取 ?lang、X-Locale、Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	return NormalizeLocale(c.GetHeader("Accept-Language"))
}

// NormalizeLocale 将任意语言标签匹配到已支持的语言
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supportedTags[index].String()
}

// T 翻译，缺失时回退默认语言，再回退 key
func T(locale, key string) string {
	if msgs, ok := catalog[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
