package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestRedactMasksSensitiveKeys(t *testing.T) {
	in := map[string]string{
		"CheckMacValue":   "ABCDEF",
		"hash_key":        "secret",
		"MerchantTradeNo": "T1",
		"RtnMsg":          strings.Repeat("x", 300),
	}
	out := Redact(in)
	if out["CheckMacValue"] != redactedValue || out["hash_key"] != redactedValue {
		t.Fatalf("sensitive keys should be masked: %+v", out)
	}
	if out["MerchantTradeNo"] != "T1" {
		t.Fatalf("plain keys should be kept")
	}
	if len([]rune(out["RtnMsg"])) != maxLogValueLength+3 {
		t.Fatalf("long values should be truncated")
	}
	if in["CheckMacValue"] != "ABCDEF" {
		t.Fatalf("input must not be modified")
	}
}

func TestNewReleaseHonoursLevelAndServiceField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "level.log", Level: "warn"})
	log.Info("info-suppressed")
	log.Warn("warn-kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "info-suppressed") {
		t.Fatalf("info entry should be filtered at warn level: %s", text)
	}
	if !strings.Contains(text, "warn-kept") || !strings.Contains(text, `"service":"tixgate"`) {
		t.Fatalf("expected warn entry with service field, got=%s", text)
	}
}

func TestResolveLevelFallsBackOnUnknownValue(t *testing.T) {
	if got := resolveLevel("verbose", false).Level(); got.String() != "info" {
		t.Fatalf("unknown level should fall back to info, got %s", got)
	}
	if got := resolveLevel("", true).Level(); got.String() != "debug" {
		t.Fatalf("debug mode should default to debug, got %s", got)
	}
	if got := resolveLevel(" ERROR ", true).Level(); got.String() != "error" {
		t.Fatalf("explicit level should win, got %s", got)
	}
}
