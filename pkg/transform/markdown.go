package transform

import (
	"bytes"
	"context"
	"fmt"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Engine Markdown 渲染引擎
type Engine string

const (
	// EngineGoldmark 普通 goldmark 渲染，公式需要先被保护
	EngineGoldmark Engine = "goldmark"
	// EngineMathJax goldmark + goldmark-mathjax 扩展，自行解析 $...$，不需要保护
	EngineMathJax Engine = "mathjax"
)

// ParseEngine 解析引擎名称，空字符串视为 goldmark
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case "", EngineGoldmark:
		return EngineGoldmark, nil
	case EngineMathJax:
		return EngineMathJax, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// RendererOptions Markdown 渲染选项
type RendererOptions struct {
	Engine Engine
	// 允许原始 HTML 直接输出
	Unsafe bool
	// 单个换行渲染为 <br>
	HardWraps bool
}

// MarkdownRenderer 基于 goldmark 的 Markdown → HTML 转换器
type MarkdownRenderer struct {
	engine Engine
	md     goldmark.Markdown
}

// NewMarkdownRenderer 创建 Markdown 渲染器
func NewMarkdownRenderer(opts RendererOptions) (*MarkdownRenderer, error) {
	engine, err := ParseEngine(string(opts.Engine))
	if err != nil {
		return nil, err
	}

	extensions := []goldmark.Extender{
		extension.GFM,            // GitHub Flavored Markdown
		extension.DefinitionList, // 定义列表
		extension.Footnote,       // 脚注
		meta.Meta,                // 前置元数据
	}
	if engine == EngineMathJax {
		extensions = append(extensions, mathjax.MathJax)
	}

	var rendererOpts []renderer.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &MarkdownRenderer{engine: engine, md: md}, nil
}

// Name 返回转换器名称
func (r *MarkdownRenderer) Name() string {
	return "markdown-" + string(r.engine)
}

// Engine 返回渲染引擎
func (r *MarkdownRenderer) Engine() Engine {
	return r.engine
}

// NeedsProtection 原生 MathJax 引擎自行解析公式
func (r *MarkdownRenderer) NeedsProtection() bool {
	return r.engine != EngineMathJax
}

// Transform 实现 Transformer 接口
func (r *MarkdownRenderer) Transform(ctx context.Context, text string) (string, error) {
	out, _, err := r.Render(ctx, text)
	return out, err
}

// Render 渲染 Markdown，同时返回前置元数据
func (r *MarkdownRenderer) Render(ctx context.Context, text string) (string, map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	pc := parser.NewContext()
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf, parser.WithContext(pc)); err != nil {
		return "", nil, &TransformError{Transformer: r.Name(), Reason: "markdown conversion failed", Err: err}
	}
	return buf.String(), meta.Get(pc), nil
}
