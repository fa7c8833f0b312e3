package cli

import (
	"github.com/nerdneilsfield/mathguard/internal/pipeline"
	"github.com/nerdneilsfield/mathguard/pkg/transform"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	engine      string
	standalone  bool
	mathJaxURL  string
	title       string
	lang        string
	unsafe      bool
	concurrency int
	out         outputOptions
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render [flags] [file...]",
		Short: "把 Markdown 渲染为 HTML，公式保持原样",
		Long: `把 Markdown 渲染为 HTML。默认 goldmark 引擎渲染前先保护公式，
mathjax 引擎由 goldmark-mathjax 直接解析公式。

没有文件参数时读取标准输入；多个文件需要 --out-dir。

用法示例：
  mathguard render notes.md -o notes.html
  mathguard render --standalone --title 笔记 notes.md
  mathguard render --out-dir site/ a.md b.md c.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.engine, "engine", "", "渲染引擎：goldmark 或 mathjax（默认取配置）")
	flags.BoolVar(&opts.standalone, "standalone", false, "输出带 MathJax 脚本的完整 HTML 页面")
	flags.StringVar(&opts.mathJaxURL, "mathjax-url", "", "MathJax 脚本地址")
	flags.StringVar(&opts.title, "title", "", "页面标题（默认取第一个一级标题）")
	flags.StringVar(&opts.lang, "lang", "", "页面语言")
	flags.BoolVar(&opts.unsafe, "unsafe", false, "保留 Markdown 中的原始 HTML")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "批量处理的并发数")
	flags.StringVarP(&opts.out.output, "output", "o", "", "输出文件（默认标准输出）")
	flags.StringVar(&opts.out.outDir, "out-dir", "", "批量输出目录")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	engine := a.cfg.Engine
	if changed(cmd, "engine") {
		engine = opts.engine
	}
	if changed(cmd, "concurrency") {
		a.cfg.Concurrency = opts.concurrency
	}
	page := a.cfg.Page
	if changed(cmd, "standalone") {
		page.Standalone = opts.standalone
	}
	if changed(cmd, "mathjax-url") {
		page.MathJaxURL = opts.mathJaxURL
	}
	if changed(cmd, "lang") {
		page.Lang = opts.lang
	}

	renderer, err := transform.NewMarkdownRenderer(transform.RendererOptions{
		Engine: transform.Engine(engine),
		Unsafe: opts.unsafe,
	})
	if err != nil {
		return err
	}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(a.log)}
	if !renderer.NeedsProtection() {
		pipeOpts = append(pipeOpts, pipeline.WithoutProtection())
	}
	if page.Standalone {
		math := a.cfg.Math
		pipeOpts = append(pipeOpts, pipeline.WithFinisher(func(_ string, out string) (string, error) {
			return transform.BuildPage(out, transform.PageOptions{
				Title:       opts.title,
				Lang:        page.Lang,
				MathJaxURL:  page.MathJaxURL,
				InlineMark:  math.InlineMark,
				DisplayMark: math.DisplayMark,
				Engine:      renderer.Engine(),
			})
		}))
	}

	p, err := pipeline.New(a.cfg.Math, renderer, pipeOpts...)
	if err != nil {
		return err
	}
	out := opts.out
	out.ext = ".html"
	return a.runDocuments(cmd, p, args, out)
}
