/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"errors"
	"fmt"
)

// ErrorClass 错误分类，用于调用方决定重试、修正参数还是放弃该实例
type ErrorClass int

const (
	// ErrorTransient 临时状态，写入方推进后即可恢复
	ErrorTransient ErrorClass = iota
	// ErrorInvalid 参数或下标非法，未发生任何修改
	ErrorInvalid
	// ErrorFatal 构造失败，该实例不可用
	ErrorFatal
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	// 读取状态，热路径上直接返回，不做包装
	ErrEmpty  = errors.New("no unread data")
	ErrLapped = errors.New("reader was lapped")

	// 构造错误
	ErrCapacity = errors.New("capacity must be a nonzero power of two")
	ErrStride   = errors.New("stride and rows must be nonzero")

	// 下标及参数错误
	ErrOutOfRange     = errors.New("index out of range")
	ErrNilPayload     = errors.New("nil payload")
	ErrPayloadTooLong = errors.New("payload longer than stride")

	// ErrClosed 模块已关闭
	ErrClosed = errors.New("the module has been closed")
)

// ClassifiedError 带分类和上下文的错误
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Wrap 按 "component.op: action failed: err" 的格式包装错误
func Wrap(err error, component, op, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, op, action, err)
}

func WrapTransient(err error, component, op, action string) error {
	return classify(ErrorTransient, err, component, op, action)
}

func WrapInvalid(err error, component, op, action string) error {
	return classify(ErrorInvalid, err, component, op, action)
}

func WrapFatal(err error, component, op, action string) error {
	return classify(ErrorFatal, err, component, op, action)
}

func classify(class ErrorClass, err error, component, op, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, op, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: op,
	}
}

// IsTransient 读取状态（空或被套圈）均属于临时错误
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrLapped)
}

func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}
	return errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrNilPayload) ||
		errors.Is(err, ErrPayloadTooLong) ||
		errors.Is(err, ErrClosed)
}

func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}
	return errors.Is(err, ErrCapacity) || errors.Is(err, ErrStride)
}

// Classify 返回错误分类，未知错误按 Invalid 处理
func Classify(err error) ErrorClass {
	switch {
	case IsTransient(err):
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	default:
		return ErrorInvalid
	}
}
