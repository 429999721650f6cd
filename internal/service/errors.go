package service

import (
	"errors"
	"fmt"
)

// ── 通用业务错误 ──

var (
	ErrValidation = errors.New("参数校验失败")
	ErrStorage    = errors.New("数据存储异常")
)

// validationError 携带具体字段说明的校验错误，errors.Is(err, ErrValidation) 成立
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageError 包装底层存储错误，保留原始错误链
func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// knownErrors 事务回调可直接返回的业务错误
var knownErrors = []error{
	ErrValidation,
	ErrStorage,
	ErrQuarterNotFound,
	ErrQuarterExists,
	ErrNoTimeSlots,
	ErrSlotNotFound,
	ErrSlotUnavailable,
	ErrDuplicateRegistration,
	ErrRegistrationNotFound,
}

// txError 事务返回的非业务错误（含提交失败）统一归为存储错误
func txError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return storageError(err)
}
