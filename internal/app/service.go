package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可启动、可停止的服务单元
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 同时运行多个服务，任一退出即整体关闭
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器，忽略 nil 服务
func NewRunner(services ...Service) *Runner {
	filtered := make([]Service, 0, len(services))
	for _, svc := range services {
		if svc != nil {
			filtered = append(filtered, svc)
		}
	}
	return &Runner{services: filtered}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

type serviceExit struct {
	name string
	err  error
}

// Run 启动全部服务；停止顺序与启动顺序相反
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exitCh := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(service Service) {
			log.Infow("service_start", "service", service.Name())
			err := service.Start(ctx)
			log.Infow("service_exit", "service", service.Name(), "error", err)
			exitCh <- serviceExit{name: service.Name(), err: err}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			runErr = ctx.Err()
		}
	case exit := <-exitCh:
		runErr = exit.err
		if runErr == nil {
			log.Warnw("service_exited_early", "service", exit.name)
		}
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	var stopErrs []error
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			stopErrs = append(stopErrs, fmt.Errorf("stop %s: %w", svc.Name(), err))
		}
	}
	if runErr != nil {
		return runErr
	}
	return errors.Join(stopErrs...)
}
