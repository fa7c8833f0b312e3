package cli

import (
	"github.com/nerdneilsfield/mathguard/internal/pipeline"
	"github.com/nerdneilsfield/mathguard/pkg/llm"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type translateOptions struct {
	provider string
	model    string
	baseURL  string
	apiKey   string
	source   string
	target   string
	cache    string
	output   string
}

func newTranslateCommand(a *app) *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [flags] [file]",
		Short: "使用大模型翻译文档，公式不交给模型",
		Long: `使用 OpenAI 兼容接口翻译文档。公式在发送前被替换为 @@n@@ 占位符，
译文中的占位符与原文不一致时报错。

用法示例：
  mathguard translate --target Chinese paper.md -o paper.zh.md
  mathguard translate --provider go-openai --base-url http://localhost:11434/v1 --model qwen2.5 paper.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.provider, "provider", "", "客户端后端：openai 或 go-openai")
	flags.StringVar(&opts.model, "model", "", "模型名称")
	flags.StringVar(&opts.baseURL, "base-url", "", "接口地址")
	flags.StringVar(&opts.apiKey, "api-key", "", "API 密钥（默认读取配置或 OPENAI_API_KEY）")
	flags.StringVar(&opts.source, "source", "", "源语言（默认自动判断）")
	flags.StringVar(&opts.target, "target", "", "目标语言")
	flags.StringVar(&opts.cache, "cache", "", "翻译缓存文件（bbolt）")
	flags.StringVarP(&opts.output, "output", "o", "", "输出文件（默认标准输出）")
	return cmd
}

func (a *app) runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	llmCfg := a.cfg.LLM
	for flag, dst := range map[string]*string{
		"provider": &llmCfg.Provider,
		"model":    &llmCfg.Model,
		"base-url": &llmCfg.BaseURL,
		"api-key":  &llmCfg.APIKey,
		"source":   &llmCfg.SourceLang,
		"target":   &llmCfg.TargetLang,
		"cache":    &llmCfg.CacheFile,
	} {
		if changed(cmd, flag) {
			*dst = cmd.Flag(flag).Value.String()
		}
	}
	a.cfg.LLM = llmCfg

	client, err := llm.NewClient(a.cfg.ClientConfig(), a.log)
	if err != nil {
		return err
	}

	trOpts := []llm.TranslatorOption{llm.WithTranslatorLogger(a.log)}
	if llmCfg.CacheFile != "" {
		cache, err := llm.OpenBoltCache(llmCfg.CacheFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(); err != nil {
				a.log.Warn("close translation cache", zap.Error(err))
			}
		}()
		trOpts = append(trOpts, llm.WithCache(cache))
	}

	translator := llm.NewTranslator(client, llmCfg.SourceLang, llmCfg.TargetLang, trOpts...)
	p, err := pipeline.New(a.cfg.Math, translator,
		pipeline.WithBlockProcessor(mathguard.UnescapeHTML),
		pipeline.WithLogger(a.log))
	if err != nil {
		return err
	}
	return a.runDocuments(cmd, p, args, outputOptions{output: opts.output})
}
