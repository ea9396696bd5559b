package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/provider"
	"github.com/tixgate/internal/router"
	"github.com/tixgate/internal/vault"
	"github.com/tixgate/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, credentialVault *vault.Vault, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if credentialVault == nil {
		return nil, errors.New("credential vault is nil")
	}
	if err := validateMode(mode); err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg, credentialVault)

	// 资源服务最先加入，最后停止
	services := []Service{&resourceService{release: container.Close}}

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		httpService := NewHTTPService(cfg.Server, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务（all 模式下队列未启用时跳过）
	if mode == ModeAll && !cfg.Queue.Enabled {
		logger.Warnw("app_worker_skipped", "reason", "queue_disabled")
	} else if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			_ = container.Close()
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 1 {
		_ = container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Vault, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", net.JoinHostPort(opts.Config.Server.Host, opts.Config.Server.Port),
		"mode", opts.Mode,
		"shutdown_timeout", opts.ShutdownTimeout.String(),
	)
	return RunWithOptions(runner, opts)
}

func validateMode(mode string) error {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return nil
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// resourceService 持有共享连接，停止时统一释放
type resourceService struct {
	release func() error
}

func (s *resourceService) Name() string { return "resources" }

func (s *resourceService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *resourceService) Stop(context.Context) error {
	if s.release == nil {
		return nil
	}
	return s.release()
}
