package domain

import (
	"errors"
	"fmt"
)

// 业务拒绝：请求本身不合格，属于正常的否定结果
var (
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidMessage = errors.New("invalid message")

	ErrMissingCaptcha = errors.New("missing captcha token")
	ErrCaptchaFailed  = errors.New("captcha verification failed")

	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("file too large")
	ErrFieldIgnored    = errors.New("multipart field ignored")
	ErrNoImage         = errors.New("no image field in request")
)

// StoreError 持久化失败（约束冲突、连接断开等）
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError 包装存储层错误，nil 原样返回
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IOError 内容目录写入失败
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsRejection 判断错误是否属于面向用户的业务拒绝（而非系统故障）
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrMissingCaptcha),
		errors.Is(err, ErrCaptchaFailed),
		errors.Is(err, ErrUnsupportedType),
		errors.Is(err, ErrTooLarge),
		errors.Is(err, ErrNoImage):
		return true
	}
	return false
}
