package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":                      LocaleTW,
		"zh-TW":                 LocaleTW,
		"zh-Hant":               LocaleTW,
		"zh-CN,zh;q=0.9":        LocaleZH,
		"en-GB,en;q=0.8":        LocaleEN,
		"fr-FR":                 LocaleTW,
		"en;q=0.5, zh-TW;q=0.9": LocaleTW,
		"not a language tag!!!": LocaleTW,
	}
	for raw, want := range cases {
		if got := NormalizeLocale(raw); got != want {
			t.Fatalf("normalize %q: want %s, got %s", raw, want, got)
		}
	}
}

func TestResolveLocalePrecedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?lang=en", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN")
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("query should win, got %s", got)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN")
	if got := ResolveLocale(c); got != LocaleZH {
		t.Fatalf("accept-language should be used, got %s", got)
	}
	if got := ResolveLocale(nil); got != DefaultLocale {
		t.Fatalf("nil context should use default, got %s", got)
	}
}

func TestCatalogCompleteness(t *testing.T) {
	for key := range catalog[DefaultLocale] {
		for locale, msgs := range catalog {
			if _, ok := msgs[key]; !ok {
				t.Fatalf("locale %s misses key %s", locale, key)
			}
		}
	}
	if T(LocaleEN, "error.unknown_key") != "error.unknown_key" {
		t.Fatalf("unknown key should fall back to the key")
	}
	if Sprintf(LocaleEN, "error.not_found") != "Resource not found" {
		t.Fatalf("unexpected translation")
	}
}
