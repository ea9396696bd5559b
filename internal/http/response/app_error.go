package response

import "fmt"

// AppError 接口错误：状态码、文案键与已翻译文案
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	label := e.Key
	if label == "" {
		label = e.Message
	}
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, label)
	}
	return fmt.Sprintf("%d %s: %v", e.Code, label, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误
func (e *AppError) Internal() bool {
	return e != nil && e.Code >= CodeInternal
}

// NewAppError 构造接口错误
func NewAppError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
