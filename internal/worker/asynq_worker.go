package worker

import (
	"context"
	"encoding/json"

	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/provider"
	"github.com/tixgate/internal/queue"
	"github.com/tixgate/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentRegistrationComplete, c.handleRegistrationComplete)
	mux.HandleFunc(queue.TaskPaymentNotify, c.handlePaymentNotify)
}

func (c *Consumer) handleRegistrationComplete(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_registration_complete_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RegistrationCompletePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_registration_complete_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 || payload.OrganizerID == 0 {
		logger.Debugw("worker_registration_complete_skip_invalid_payload", "payment_id", payload.PaymentID, "organizer_id", payload.OrganizerID)
		return nil
	}
	pay, err := c.PaymentRepo.GetByOrganizer(payload.OrganizerID, payload.PaymentID)
	if err != nil {
		logger.Warnw("worker_registration_complete_fetch_payment_failed", "payment_id", payload.PaymentID, "error", err)
		return err
	}
	if pay == nil {
		logger.Debugw("worker_registration_complete_skip_payment_not_found", "payment_id", payload.PaymentID)
		return nil
	}
	if pay.Status != constants.PaymentStatusCompleted {
		logger.Infow("worker_registration_complete_skip_status", "payment_id", pay.ID, "status", pay.Status)
		return nil
	}
	if c.RegistrationCompleter == nil {
		logger.Warnw("worker_registration_complete_skip_collaborator_nil", "payment_id", pay.ID)
		return nil
	}
	if err := c.RegistrationCompleter.CompleteRegistration(ctx, service.BuildRegistrationCompletion(pay)); err != nil {
		logger.Warnw("worker_registration_complete_failed", "payment_id", pay.ID, "resource_id", pay.ResourceID, "error", err)
		return err
	}
	logger.Infow("worker_registration_complete_done", "payment_id", pay.ID, "resource_id", pay.ResourceID)
	return nil
}

func (c *Consumer) handlePaymentNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 {
		logger.Debugw("worker_payment_notify_skip_invalid_payload")
		return nil
	}
	if c.PaymentNotifier == nil {
		logger.Debugw("worker_payment_notify_skip_collaborator_nil", "payment_id", payload.PaymentID)
		return nil
	}
	if err := c.PaymentNotifier.NotifyPayment(ctx, notificationFromPayload(payload)); err != nil {
		logger.Warnw("worker_payment_notify_failed", "payment_id", payload.PaymentID, "status", payload.Status, "error", err)
		return err
	}
	return nil
}

func notificationFromPayload(payload queue.PaymentNotifyPayload) service.PaymentNotification {
	return service.PaymentNotification{
		Event:           payload.Event,
		PaymentID:       payload.PaymentID,
		OrganizerID:     payload.OrganizerID,
		Status:          payload.Status,
		PreviousStatus:  payload.PreviousStatus,
		MerchantTradeNo: payload.MerchantTradeNo,
		ResourceType:    payload.ResourceType,
		ResourceID:      payload.ResourceID,
		Amount:          payload.Amount,
		Currency:        payload.Currency,
	}
}
