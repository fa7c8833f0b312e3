package transform

import (
	"context"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
)

// MarkdownFormatter 基于 markdownfmt 的 Markdown 规范化转换器
//
// 输出仍是 Markdown，配合 mathguard.UnescapeHTML 使用，让公式按原文还原。
type MarkdownFormatter struct {
	name string
}

// NewMarkdownFormatter 创建 Markdown 格式化器
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{name: "markdownfmt"}
}

// Name 返回转换器名称
func (f *MarkdownFormatter) Name() string {
	return f.name
}

// Transform 格式化 Markdown 文本
func (f *MarkdownFormatter) Transform(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	formatted, err := markdownfmt.Process("", []byte(text),
		markdown.WithCodeFormatters(markdown.GoCodeFormatter),
	)
	if err != nil {
		return "", &TransformError{Transformer: f.name, Reason: "markdown formatting failed", Err: err}
	}
	return string(formatted), nil
}
