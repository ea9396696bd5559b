package queue

import (
	"context"
	"errors"
	"time"

	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 通知等可丢弃任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 报名完成等必须送达的任务
	CriticalQueue = constants.QueueCritical

	defaultConcurrency     = 10
	workerShutdownDeadline = 8 * time.Second
)

// ErrDuplicateTask 同一 TaskID 已在队列中
var ErrDuplicateTask = errors.New("queue task already enqueued")

// Client 队列客户端；未启用时所有入队操作为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueRegistrationComplete 推送报名完成任务，同一支付只入队一次
func (c *Client) EnqueueRegistrationComplete(payload RegistrationCompletePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewRegistrationCompleteTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, []asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.TaskID(RegistrationTaskID(payload.PaymentID)),
		asynq.MaxRetry(10),
		asynq.Retention(7 * 24 * time.Hour),
	}, opts)
}

// EnqueuePaymentNotify 推送支付状态通知，按 支付+状态 去重
func (c *Client) EnqueuePaymentNotify(payload PaymentNotifyPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPaymentNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.TaskID(NotifyTaskID(payload.PaymentID, payload.Status)),
		asynq.MaxRetry(3),
		asynq.Retention(24 * time.Hour),
	}, opts)
}

func (c *Client) enqueue(task *asynq.Task, defaults, overrides []asynq.Option) error {
	_, err := c.client.Enqueue(task, append(defaults, overrides...)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return ErrDuplicateTask
	}
	return err
}

// BuildServerConfig 生成消费端配置；重试耗尽前的失败仅记录告警
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency:     defaultConcurrency,
		Queues:          map[string]int{CriticalQueue: 6, DefaultQueue: 3},
		ShutdownTimeout: workerShutdownDeadline,
		ErrorHandler:    asynq.ErrorHandlerFunc(logTaskFailure),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	fields := []interface{}{
		"task_type", task.Type(),
		"task_id", taskID,
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	}
	if retried >= maxRetry {
		logger.Errorw("queue_task_exhausted", fields...)
		return
	}
	logger.Warnw("queue_task_failed", fields...)
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: cache.Addr("", 0)}
	}
	return asynq.RedisClientOpt{
		Addr:     cache.Addr(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
