// Package transform 定义公式保护之后的下游转换器。
//
// 转换器不能修改或删除 @@n@@ 形式的占位符，否则还原会失败。
package transform

import (
	"context"
	"errors"
)

// ErrUnknownEngine 未知的 Markdown 渲染引擎
var ErrUnknownEngine = errors.New("unknown markdown engine")

// Transformer 下游文本转换器
type Transformer interface {
	// Name 转换器名称，用于日志
	Name() string
	// Transform 转换已经被保护的文本
	Transform(ctx context.Context, text string) (string, error)
}

// Func 把普通函数适配为 Transformer
type Func struct {
	name string
	fn   func(ctx context.Context, text string) (string, error)
}

// NewFunc 创建函数转换器
func NewFunc(name string, fn func(ctx context.Context, text string) (string, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name 返回名称
func (f *Func) Name() string {
	return f.name
}

// Transform 调用底层函数
func (f *Func) Transform(ctx context.Context, text string) (string, error) {
	return f.fn(ctx, text)
}

// Identity 原样返回文本的转换器
var Identity Transformer = NewFunc("identity", func(_ context.Context, text string) (string, error) {
	return text, nil
})

// TransformError 转换失败
type TransformError struct {
	Transformer string
	Reason      string
	Err         error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return e.Transformer + ": " + e.Reason + ": " + e.Err.Error()
	}
	return e.Transformer + ": " + e.Reason
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
