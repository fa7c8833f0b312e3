package transform

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const pageSkeleton = `<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`

// DefaultMathJaxURL MathJax 3 CDN 地址
const DefaultMathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-chtml.js"

// PageOptions 独立 HTML 页面选项
type PageOptions struct {
	// 页面标题，为空时取第一个 <h1> 的文本
	Title string
	Lang  string
	// 为空时不引入 MathJax
	MathJaxURL  string
	InlineMark  string
	DisplayMark string
	// 片段由哪个引擎渲染，mathjax 引擎输出 \(..\) 与 \[..\]
	Engine Engine
}

// BuildPage 把渲染出的 HTML 片段包装为完整页面
func BuildPage(fragment string, opts PageOptions) (string, error) {
	root, err := html.Parse(strings.NewReader(pageSkeleton))
	if err != nil {
		return "", &TransformError{Transformer: "page", Reason: "parse page skeleton", Err: err}
	}
	doc := goquery.NewDocumentFromNode(root)

	doc.Find("body").SetHtml(fragment)
	if opts.Lang != "" {
		doc.Find("html").SetAttr("lang", opts.Lang)
	}

	title := opts.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	doc.Find("title").SetText(title)

	if opts.MathJaxURL != "" {
		script, err := mathJaxConfig(opts)
		if err != nil {
			return "", &TransformError{Transformer: "page", Reason: "encode mathjax config", Err: err}
		}
		head := doc.Find("head")
		head.AppendHtml("<script>" + script + "</script>")
		head.AppendHtml(`<script id="MathJax-script" async src="` + html.EscapeString(opts.MathJaxURL) + `"></script>`)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", &TransformError{Transformer: "page", Reason: "render page", Err: err}
	}
	return buf.String(), nil
}

// mathJaxConfig 生成 MathJax 的定界符配置
//
// 保护流程下公式按原定界符原样出现在 HTML 中；goldmark-mathjax 则统一改写为 \(..\) 与 \[..\]。
func mathJaxConfig(opts PageOptions) (string, error) {
	inline, display := []string{`\(`, `\)`}, []string{`\[`, `\]`}
	if opts.Engine != EngineMathJax {
		i, d := opts.InlineMark, opts.DisplayMark
		if i == "" {
			i = "$"
		}
		if d == "" {
			d = "$$"
		}
		inline, display = []string{i, i}, []string{d, d}
	}
	cfg := map[string]interface{}{
		"tex": map[string]interface{}{
			"inlineMath":     [][]string{inline},
			"displayMath":    [][]string{display},
			"processEscapes": true,
		},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return "window.MathJax = " + string(data) + ";", nil
}
