package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tixgate/internal/config"

	"github.com/go-resty/resty/v2"
)

const (
	registrationCompletePath = "/registrations/complete"
	paymentNotifyPath        = "/notifications/payment"
	defaultCollaboratorWait  = 10 * time.Second
)

// ErrCollaboratorRequestFailed 协作方返回非 2xx
var ErrCollaboratorRequestFailed = errors.New("collaborator request failed")

// collaboratorClient 协作方 HTTP 客户端
type collaboratorClient struct {
	baseURL string
	client  *resty.Client
}

func newCollaboratorClient(cfg config.CollaboratorConfig) *collaboratorClient {
	if !cfg.Enabled() {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultCollaboratorWait
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("Content-Type", "application/json")
	if token := strings.TrimSpace(cfg.Token); token != "" {
		client.SetAuthToken(token)
	}
	return &collaboratorClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  client,
	}
}

func (c *collaboratorClient) post(ctx context.Context, path, idempotencyKey string, body interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", idempotencyKey).
		SetBody(body).
		Post(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCollaboratorRequestFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrCollaboratorRequestFailed, resp.StatusCode())
	}
	return nil
}

// RegistrationClient 报名服务客户端
type RegistrationClient struct {
	http *collaboratorClient
}

// NewRegistrationClient 未配置地址时返回 nil
func NewRegistrationClient(cfg config.CollaboratorConfig) *RegistrationClient {
	client := newCollaboratorClient(cfg)
	if client == nil {
		return nil
	}
	return &RegistrationClient{http: client}
}

// CompleteRegistration 确认报名
func (c *RegistrationClient) CompleteRegistration(ctx context.Context, req RegistrationCompletion) error {
	if c == nil {
		return nil
	}
	return c.http.post(ctx, registrationCompletePath, fmt.Sprintf("registration:%d", req.PaymentID), req)
}

// NotificationClient 通知服务客户端
type NotificationClient struct {
	http *collaboratorClient
}

// NewNotificationClient 未配置地址时返回 nil
func NewNotificationClient(cfg config.CollaboratorConfig) *NotificationClient {
	client := newCollaboratorClient(cfg)
	if client == nil {
		return nil
	}
	return &NotificationClient{http: client}
}

// NotifyPayment 推送支付状态
func (c *NotificationClient) NotifyPayment(ctx context.Context, notification PaymentNotification) error {
	if c == nil {
		return nil
	}
	key := fmt.Sprintf("notify:%d:%s", notification.PaymentID, notification.Status)
	return c.http.post(ctx, paymentNotifyPath, key, notification)
}
