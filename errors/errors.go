// Package errors 定义 tagboard 的结构化错误类型。
//
// 错误码按来源分类：
//   - INVALID_INPUT: 输入数据违反约定（未定义的等级、空标签等），应尽早失败
//   - INVALID_CONFIG: 配置文件或命令行参数不合法
//   - MEASUREMENT_UNAVAILABLE: 文本测量后端不可用，属于环境配置错误，不可恢复
//   - IMAGE_LOAD: 单张图片加载失败，布局阶段会降级为占位矩形
//   - RENDER: 绘制或编码输出失败
package errors

import (
	"errors"
	"fmt"
)

// Code 是机器可读的错误码。
type Code string

const (
	ErrCodeInvalidInput           Code = "INVALID_INPUT"
	ErrCodeInvalidConfig          Code = "INVALID_CONFIG"
	ErrCodeMeasurementUnavailable Code = "MEASUREMENT_UNAVAILABLE"
	ErrCodeImageLoad              Code = "IMAGE_LOAD"
	ErrCodeRender                 Code = "RENDER"
)

// Error 携带错误码、描述与可选的底层原因。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New 创建带格式化描述的错误。
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 在已有错误外包一层错误码。
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is 沿错误链查找是否存在给定错误码的 *Error。
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// CodeOf 返回错误链上第一个 *Error 的错误码，没有则返回空串。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
