package queue

import (
	"encoding/json"
	"fmt"

	"github.com/tixgate/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentRegistrationComplete 报名完成回调任务
	TaskPaymentRegistrationComplete = constants.TaskPaymentRegistrationComplete
	// TaskPaymentNotify 支付结果通知任务
	TaskPaymentNotify = constants.TaskPaymentNotify
)

// RegistrationCompletePayload 报名完成任务载荷
type RegistrationCompletePayload struct {
	PaymentID    uint   `json:"payment_id"`
	OrganizerID  uint   `json:"organizer_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

// PaymentNotifyPayload 支付通知任务载荷
type PaymentNotifyPayload struct {
	PaymentID       uint   `json:"payment_id"`
	OrganizerID     uint   `json:"organizer_id"`
	Event           string `json:"event"`
	Status          string `json:"status"`
	PreviousStatus  string `json:"previous_status"`
	MerchantTradeNo string `json:"merchant_trade_no"`
	ResourceType    string `json:"resource_type"`
	ResourceID      string `json:"resource_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// RegistrationTaskID 同一支付只允许入队一次
func RegistrationTaskID(paymentID uint) string {
	return fmt.Sprintf("registration:%d", paymentID)
}

// NotifyTaskID 同一支付同一状态只通知一次
func NotifyTaskID(paymentID uint, status string) string {
	return fmt.Sprintf("notify:%d:%s", paymentID, status)
}

// NewRegistrationCompleteTask 创建报名完成任务
func NewRegistrationCompleteTask(payload RegistrationCompletePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentRegistrationComplete, body), nil
}

// NewPaymentNotifyTask 创建支付通知任务
func NewPaymentNotifyTask(payload PaymentNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentNotify, body), nil
}
