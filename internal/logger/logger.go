package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogDirName    = "logs"
	defaultLogFilename   = "tixgate.log"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
	defaultServiceName   = "tixgate"
)

// Options 日志输出配置
type Options struct {
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Level 覆盖模式默认级别（debug/info/warn/error），为空时 debug 模式取 debug，否则 info
	Level string
	// Stdout release 模式下同时输出 JSON 到标准输出（容器部署）
	Stdout bool
}

// L 全局结构化日志实例
var L *zap.Logger

var (
	fallbackOnce sync.Once
	fallbackLog  *zap.Logger
)

// Init 初始化全局日志
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	if L == nil {
		L = fallbackLogger()
	}
	zap.ReplaceGlobals(L)
	return L
}

// New 创建日志实例：debug 模式输出彩色控制台，其余模式写入滚动文件
func New(mode string, options Options) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level := resolveLevel(options.Level, debug)
	encoderConfig := newEncoderConfig()

	var core zapcore.Core
	if debug {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level)
	} else {
		jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)
		stdoutCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(os.Stdout), level)
		writeSyncer, err := newFileWriteSyncer(options)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "logger init failed, fallback to stdout: %v\n", err)
			core = stdoutCore
		case options.Stdout:
			core = zapcore.NewTee(zapcore.NewCore(jsonEncoder, writeSyncer, level), stdoutCore)
		default:
			core = zapcore.NewCore(jsonEncoder, writeSyncer, level)
		}
	}
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", defaultServiceName))
}

func resolveLevel(raw string, debug bool) zap.AtomicLevel {
	if strings.TrimSpace(raw) != "" {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			return zap.NewAtomicLevelAt(parsed)
		}
	}
	if debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

// StdLogger 供仍依赖标准库 log 的调用方使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(Z())
}

// Z 未初始化时返回控制台兜底实例
func Z() *zap.Logger {
	if L == nil {
		return fallbackLogger()
	}
	return L
}

func S() *zap.SugaredLogger { return Z().Sugar() }

// SW 附加固定字段
func SW(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return S()
	}
	return S().With(kv...)
}

func Debugw(message string, kv ...interface{}) { S().Debugw(message, kv...) }

func Infow(message string, kv ...interface{}) { S().Infow(message, kv...) }

func Warnw(message string, kv ...interface{}) { S().Warnw(message, kv...) }

func Errorw(message string, kv ...interface{}) { S().Errorw(message, kv...) }

func fallbackLogger() *zap.Logger {
	fallbackOnce.Do(func() {
		encoder := zapcore.NewConsoleEncoder(newEncoderConfig())
		fallbackLog = zap.New(
			zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.InfoLevel),
			zap.AddCaller(), zap.AddCallerSkip(1),
		)
	})
	return fallbackLog
}

func newEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey, cfg.MessageKey = "time", "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// newFileWriteSyncer 滚动文件输出，启动时先确认文件可写
func newFileWriteSyncer(options Options) (zapcore.WriteSyncer, error) {
	path, err := resolveLogFilePath(options)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    positiveOr(options.MaxSizeMB, defaultLogMaxSizeMB),
		MaxBackups: positiveOr(options.MaxBackups, defaultLogMaxBackups),
		MaxAge:     positiveOr(options.MaxAgeDays, defaultLogMaxAgeDays),
		Compress:   options.Compress,
	}), nil
}

func resolveLogFilePath(options Options) (string, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve workdir: %w", err)
		}
		dir = filepath.Join(wd, defaultLogDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	name := strings.TrimSpace(options.Filename)
	if name == "" {
		name = defaultLogFilename
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close log file: %w", err)
	}
	return path, nil
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
