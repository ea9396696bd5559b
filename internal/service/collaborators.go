package service

import (
	"context"
	"errors"

	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/queue"
)

// RegistrationCompletion 报名完成请求
type RegistrationCompletion struct {
	PaymentID       uint   `json:"payment_id"`
	OrganizerID     uint   `json:"organizer_id"`
	ResourceType    string `json:"resource_type"`
	ResourceID      string `json:"resource_id"`
	MerchantTradeNo string `json:"merchant_trade_no"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// PaymentNotification 支付状态通知
type PaymentNotification struct {
	Event           string `json:"event"`
	PaymentID       uint   `json:"payment_id"`
	OrganizerID     uint   `json:"organizer_id"`
	Status          string `json:"status"`
	PreviousStatus  string `json:"previous_status"`
	MerchantTradeNo string `json:"merchant_trade_no"`
	ResourceType    string `json:"resource_type"`
	ResourceID      string `json:"resource_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// RegistrationCompleter 报名服务：支付完成后确认报名
type RegistrationCompleter interface {
	CompleteRegistration(ctx context.Context, req RegistrationCompletion) error
}

// PaymentNotifier 通知服务
type PaymentNotifier interface {
	NotifyPayment(ctx context.Context, notification PaymentNotification) error
}

// PaymentEventDispatcher 回调落库后的下游派发
type PaymentEventDispatcher interface {
	DispatchRegistration(ctx context.Context, payment *models.Payment) error
	DispatchNotification(ctx context.Context, payment *models.Payment, previousStatus string) error
}

// CollaboratorDispatcher 队列可用时入队，否则直接调用协作方
type CollaboratorDispatcher struct {
	queueClient  *queue.Client
	registration RegistrationCompleter
	notifier     PaymentNotifier
}

// NewCollaboratorDispatcher 创建派发器，协作方可为 nil
func NewCollaboratorDispatcher(queueClient *queue.Client, registration RegistrationCompleter, notifier PaymentNotifier) *CollaboratorDispatcher {
	return &CollaboratorDispatcher{
		queueClient:  queueClient,
		registration: registration,
		notifier:     notifier,
	}
}

// DispatchRegistration 派发报名完成
func (d *CollaboratorDispatcher) DispatchRegistration(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return nil
	}
	log := paymentLogger("payment_id", payment.ID, "organizer_id", payment.OrganizerID, "resource_id", payment.ResourceID)
	if d.queueClient != nil && d.queueClient.Enabled() {
		err := d.queueClient.EnqueueRegistrationComplete(queue.RegistrationCompletePayload{
			PaymentID:    payment.ID,
			OrganizerID:  payment.OrganizerID,
			ResourceType: payment.ResourceType,
			ResourceID:   payment.ResourceID,
		})
		if errors.Is(err, queue.ErrDuplicateTask) {
			log.Debugw("registration_complete_already_enqueued")
			return nil
		}
		if err != nil {
			return err
		}
		log.Infow("registration_complete_enqueued")
		return nil
	}
	if d.registration == nil {
		log.Debugw("registration_complete_skipped_no_collaborator")
		return nil
	}
	return d.registration.CompleteRegistration(ctx, BuildRegistrationCompletion(payment))
}

// DispatchNotification 派发支付状态通知
func (d *CollaboratorDispatcher) DispatchNotification(ctx context.Context, payment *models.Payment, previousStatus string) error {
	if payment == nil {
		return nil
	}
	notification := BuildPaymentNotification(payment, previousStatus)
	if d.queueClient != nil && d.queueClient.Enabled() {
		err := d.queueClient.EnqueuePaymentNotify(queue.PaymentNotifyPayload{
			PaymentID:       notification.PaymentID,
			OrganizerID:     notification.OrganizerID,
			Event:           notification.Event,
			Status:          notification.Status,
			PreviousStatus:  notification.PreviousStatus,
			MerchantTradeNo: notification.MerchantTradeNo,
			ResourceType:    notification.ResourceType,
			ResourceID:      notification.ResourceID,
			Amount:          notification.Amount,
			Currency:        notification.Currency,
		})
		if errors.Is(err, queue.ErrDuplicateTask) {
			return nil
		}
		return err
	}
	if d.notifier == nil {
		return nil
	}
	return d.notifier.NotifyPayment(ctx, notification)
}

// BuildRegistrationCompletion 由支付记录构建报名完成请求
func BuildRegistrationCompletion(payment *models.Payment) RegistrationCompletion {
	return RegistrationCompletion{
		PaymentID:       payment.ID,
		OrganizerID:     payment.OrganizerID,
		ResourceType:    payment.ResourceType,
		ResourceID:      payment.ResourceID,
		MerchantTradeNo: payment.MerchantTradeNo,
		Amount:          payment.FinalAmount.String(),
		Currency:        payment.Currency,
	}
}

// BuildPaymentNotification 由支付记录构建通知
func BuildPaymentNotification(payment *models.Payment, previousStatus string) PaymentNotification {
	return PaymentNotification{
		Event:           paymentEventForStatus(payment.Status),
		PaymentID:       payment.ID,
		OrganizerID:     payment.OrganizerID,
		Status:          payment.Status,
		PreviousStatus:  previousStatus,
		MerchantTradeNo: payment.MerchantTradeNo,
		ResourceType:    payment.ResourceType,
		ResourceID:      payment.ResourceID,
		Amount:          payment.FinalAmount.String(),
		Currency:        payment.Currency,
	}
}

func paymentEventForStatus(status string) string {
	switch status {
	case constants.PaymentStatusCompleted:
		return constants.PaymentEventCompleted
	case constants.PaymentStatusFailed:
		return constants.PaymentEventFailed
	case constants.PaymentStatusCancelled:
		return constants.PaymentEventCancelled
	default:
		return constants.PaymentEventUpdated
	}
}
