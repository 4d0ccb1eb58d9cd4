package service

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind 错误分类，决定返回给调用方的状态码
type Kind int

const (
	KindValidation Kind = iota + 1 // 入参缺失或格式错误
	KindConflict                   // 唯一约束冲突
	KindForbidden                  // 引用的用户在当前策略下不存在
	KindNotFound                   // 目标记录不存在
	KindStore                      // 存储层失败（含超时）
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store_error"
	default:
		return "unknown_error"
	}
}

// Status http 状态码
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error 业务错误，Err 保留底层原始错误便于排查
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail 底层错误信息，无则为空
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func ValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func ConflictError(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func ForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// StoreError 包装存储层错误，保留调用栈
func StoreError(msg string, err error) error {
	return &Error{Kind: KindStore, Message: msg, Err: errors.WithStack(err)}
}

// KindOf 非 *Error 一律视为存储层错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// IsKind 判断错误分类
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
