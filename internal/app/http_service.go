package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tixgate/internal/config"
)

// HTTPService 网关 HTTP 服务
type HTTPService struct {
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewHTTPService 按服务器配置创建 HTTP 服务，未配置的超时使用默认值
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: secondsOr(cfg.ReadHeaderTimeoutSeconds, 5),
			ReadTimeout:       secondsOr(cfg.ReadTimeoutSeconds, 15),
			WriteTimeout:      secondsOr(cfg.WriteTimeoutSeconds, 30),
			IdleTimeout:       secondsOr(cfg.IdleTimeoutSeconds, 60),
		},
	}
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Addr 实际监听地址，未启动时返回配置地址
func (s *HTTPService) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start 监听并阻塞直到服务关闭
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的回调处理完成
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
