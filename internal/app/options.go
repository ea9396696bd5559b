package app

import (
	"os"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/vault"

	"go.uber.org/zap"
)

// 进程运行模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config  *config.Config
	Vault   *vault.Vault
	Logger  *zap.SugaredLogger
	Signals []os.Signal
	// ShutdownTimeout 未设置时取 server.shutdown_timeout_seconds
	ShutdownTimeout time.Duration
	Mode            string
}

func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 && opts.Config != nil {
		opts.ShutdownTimeout = secondsOr(opts.Config.Server.ShutdownTimeoutSeconds, 0)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	switch opts.Mode {
	case "":
		opts.Mode = ModeAll
	case ModeAll, ModeAPI, ModeWorker:
	default:
		opts.Logger.Warnw("app_mode_unknown", "mode", opts.Mode)
	}
	return opts
}
