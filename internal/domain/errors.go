package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 输入不合法
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrDataIntegrity 数据完整性被破坏，例如商品引用了不存在的分类
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrUnauthenticated 缺少有效身份
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError 描述具体字段的校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Unwrap 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
