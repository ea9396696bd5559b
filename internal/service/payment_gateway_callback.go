package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProviderCallbackInput 提供方异步回调
type ProviderCallbackInput struct {
	ProviderID  string
	OrganizerID uint
	Callback    payment.Callback
}

// ProviderCallbackResult 回调处理结果
type ProviderCallbackResult struct {
	Payment        *models.Payment
	PreviousStatus string
	Applied        bool
	Replayed       bool
}

// 允许的状态迁移
var paymentTransitions = map[string]map[string]bool{
	constants.PaymentStatusPending: {
		constants.PaymentStatusProcessing: true,
		constants.PaymentStatusCompleted:  true,
		constants.PaymentStatusFailed:     true,
		constants.PaymentStatusCancelled:  true,
	},
	constants.PaymentStatusProcessing: {
		constants.PaymentStatusCompleted: true,
		constants.PaymentStatusFailed:    true,
		constants.PaymentStatusCancelled: true,
	},
	constants.PaymentStatusCompleted: {
		constants.PaymentStatusCancelled: true,
		constants.PaymentStatusRefunded:  true,
	},
}

// CanTransitionPayment 判断状态迁移是否合法
func CanTransitionPayment(from, to string) bool {
	return paymentTransitions[from][to]
}

// HandleProviderCallback 校验并应用提供方回调，重复回调不产生副作用
func (s *PaymentGatewayService) HandleProviderCallback(ctx context.Context, input ProviderCallbackInput) (*ProviderCallbackResult, error) {
	providerID := strings.TrimSpace(input.ProviderID)
	log := paymentLogger("provider_id", providerID, "organizer_id", input.OrganizerID)
	log.Infow("payment_callback_received")

	if input.OrganizerID == 0 {
		return nil, ErrProviderConfigNotFound
	}
	provider, err := s.registry.GetProvider(providerID)
	if err != nil {
		log.Warnw("payment_callback_provider_unknown")
		return nil, ErrPaymentProviderNotSupported
	}
	cfg, err := s.configSvc.GetActiveConfigForProvider(input.OrganizerID, providerID)
	if err != nil {
		log.Warnw("payment_callback_config_missing", "error", err)
		if errors.Is(err, ErrProviderConfigNotFound) {
			return nil, ErrProviderConfigNotFound
		}
		return nil, ErrPaymentUpdateFailed
	}
	creds, err := s.configSvc.GetDecryptedCredentials(cfg)
	if err != nil {
		log.Errorw("payment_callback_credentials_decrypt_failed", "config_id", cfg.ID, "error", err)
		return nil, err
	}
	if !provider.ValidateCallback(input.Callback, creds) {
		log.Warnw("payment_callback_signature_invalid")
		return nil, ErrInvalidSignature
	}

	tradeNo := strings.TrimSpace(provider.CallbackTradeNo(input.Callback))
	log = log.With("merchant_trade_no", tradeNo)
	if tradeNo == "" {
		log.Warnw("payment_callback_trade_no_missing")
		return nil, ErrPaymentNotFound
	}
	pay, err := s.paymentRepo.GetByTradeNo(input.OrganizerID, tradeNo)
	if err != nil {
		log.Errorw("payment_callback_payment_fetch_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	if pay == nil || pay.ProviderID != providerID {
		log.Warnw("payment_callback_payment_not_found")
		return nil, ErrPaymentNotFound
	}
	log = log.With("payment_id", pay.ID)

	outcome, err := provider.ProcessCallback(input.Callback, pay)
	if err != nil {
		log.Warnw("payment_callback_process_failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentCallbackInvalid, err)
	}

	lock, err := cache.AcquireCallbackLock(ctx, providerID, tradeNo, s.callbackLockTTL())
	if err != nil {
		// Redis 不可用时依赖行锁
		log.Warnw("payment_callback_lock_error", "error", err)
	} else if lock == nil {
		log.Infow("payment_callback_lock_busy")
		return nil, ErrPaymentCallbackBusy
	}
	defer func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil {
			log.Warnw("payment_callback_lock_release_failed", "error", releaseErr)
		}
	}()

	result := &ProviderCallbackResult{}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := s.paymentRepo.WithTx(tx).LockByID(pay.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}
		result.Payment = locked
		result.PreviousStatus = locked.Status

		if locked.Status == outcome.Status {
			result.Replayed = true
			return nil
		}
		if !CanTransitionPayment(locked.Status, outcome.Status) {
			log.Warnw("payment_callback_transition_ignored", "from", locked.Status, "to", outcome.Status)
			return nil
		}

		now := s.now()
		locked.Status = outcome.Status
		if txnID := strings.TrimSpace(outcome.ProviderTransactionID); txnID != "" {
			locked.ProviderTransactionID = txnID
		}
		if method := strings.TrimSpace(outcome.PaymentMethod); method != "" {
			locked.PaymentMethod = method
		}
		locked.ProviderResponse = mergeProviderResponse(locked.ProviderResponse, outcome.ProviderResponse)
		locked.CallbackAt = &now
		if outcome.Status == constants.PaymentStatusCompleted {
			paidAt := now
			if outcome.PaidAt != nil {
				paidAt = *outcome.PaidAt
			}
			locked.PaidAt = &paidAt
		}
		locked.UpdatedAt = now
		if err := s.paymentRepo.WithTx(tx).Update(locked); err != nil {
			return err
		}

		txn := &models.PaymentTransaction{
			PaymentID:             locked.ID,
			OrganizerID:           locked.OrganizerID,
			ResourceType:          locked.ResourceType,
			ResourceID:            locked.ResourceID,
			Type:                  constants.PaymentTxnTypeCharge,
			Status:                outcome.Status,
			Amount:                locked.FinalAmount,
			ProviderTransactionID: locked.ProviderTransactionID,
			ProviderResponse:      outcome.ProviderResponse,
			CreatedAt:             now,
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, err
		}
		log.Errorw("payment_callback_apply_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	if result.Replayed {
		log.Infow("payment_callback_replayed", "status", result.Payment.Status)
		return result, nil
	}
	if !result.Applied {
		return result, nil
	}
	log.Infow("payment_callback_applied", "from", result.PreviousStatus, "to", result.Payment.Status)
	s.dispatchAfterCallback(ctx, result, log)
	return result, nil
}

func (s *PaymentGatewayService) dispatchAfterCallback(ctx context.Context, result *ProviderCallbackResult, log *zap.SugaredLogger) {
	if s.dispatcher == nil {
		return
	}
	pay := result.Payment
	if pay.Status == constants.PaymentStatusCompleted &&
		result.PreviousStatus != constants.PaymentStatusCompleted &&
		pay.ResourceType == constants.ResourceTypeEvent {
		if err := s.dispatcher.DispatchRegistration(ctx, pay); err != nil {
			log.Warnw("payment_callback_registration_dispatch_failed", "error", err)
		}
	}
	if err := s.dispatcher.DispatchNotification(ctx, pay, result.PreviousStatus); err != nil {
		log.Warnw("payment_callback_notify_dispatch_failed", "error", err)
	}
}

func (s *PaymentGatewayService) callbackLockTTL() time.Duration {
	if s.options.CallbackLockSeconds <= 0 {
		return 0
	}
	return time.Duration(s.options.CallbackLockSeconds) * time.Second
}

// mergeProviderResponse 保留发起时的数据，回调字段覆盖同名键
func mergeProviderResponse(previous, callback models.JSON) models.JSON {
	merged := previous.Clone()
	if merged == nil {
		merged = models.JSON{}
	}
	for key, value := range callback {
		merged[key] = value
	}
	return merged
}
