package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultCallbackLockTTL = 30 * time.Second

// CallbackLock 回调处理锁（跨实例，尽力而为）
type CallbackLock struct {
	key   string
	token string
}

func callbackLockKey(providerID, tradeNo string) string {
	return fmt.Sprintf("payment:callback:%s:%s", strings.TrimSpace(providerID), strings.TrimSpace(tradeNo))
}

// AcquireCallbackLock 获取某笔交易的回调锁，未获取到时返回 nil
func AcquireCallbackLock(ctx context.Context, providerID, tradeNo string, ttl time.Duration) (*CallbackLock, error) {
	if ttl <= 0 {
		ttl = defaultCallbackLockTTL
	}
	lock := &CallbackLock{
		key:   callbackLockKey(providerID, tradeNo),
		token: uuid.NewString(),
	}
	ok, err := TryLock(ctx, lock.key, lock.token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return lock, nil
}

// Release 释放回调锁
func (l *CallbackLock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return Unlock(ctx, l.key, l.token)
}
