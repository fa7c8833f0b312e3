// Package pipeline 对每篇文档执行 提取 → 转换 → 还原 的完整往返
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/nerdneilsfield/mathguard/pkg/transform"
	"go.uber.org/zap"
)

// Finisher 在还原之后对整篇输出做最后处理，例如包装为独立页面
type Finisher func(name, output string) (string, error)

// Option Pipeline 的可选配置
type Option func(*Pipeline)

// WithoutProtection 跳过公式保护，直接把原文交给转换器
func WithoutProtection() Option {
	return func(p *Pipeline) {
		p.protect = false
	}
}

// WithBlockProcessor 设置公式入库前的处理函数
func WithBlockProcessor(fn mathguard.BlockProcessor) Option {
	return func(p *Pipeline) {
		p.process = fn
	}
}

// WithFinisher 设置输出的最终处理
func WithFinisher(fn Finisher) Option {
	return func(p *Pipeline) {
		p.finish = fn
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// Pipeline 文档处理流水线，可以被多个 goroutine 同时使用
type Pipeline struct {
	config      mathguard.Config
	transformer transform.Transformer
	protect     bool
	process     mathguard.BlockProcessor
	finish      Finisher
	log         *zap.Logger
}

// Result 单篇文档的处理结果
type Result struct {
	ID        string
	Name      string
	Protected string
	Blocks    []mathguard.Block
	Output    string
	Duration  time.Duration
}

// New 创建流水线，定界符配置不合法时返回错误
func New(config mathguard.Config, transformer transform.Transformer, opts ...Option) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		config:      config,
		transformer: transformer,
		protect:     true,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process 处理一篇文档
func (p *Pipeline) Process(ctx context.Context, name, input string) (*Result, error) {
	start := time.Now()
	result := &Result{ID: uuid.NewString(), Name: name}
	log := p.log.With(zap.String("run_id", result.ID), zap.String("document", name))

	// 每篇文档使用独立的 Protector
	protector, err := mathguard.NewProtector(p.config,
		mathguard.WithBlockProcessor(p.process),
		mathguard.WithLogger(log))
	if err != nil {
		return nil, err
	}

	text := input
	if p.protect {
		text = protector.Extract(input)
		result.Blocks = protector.Blocks()
	}
	result.Protected = text

	out, err := p.transformer.Transform(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if p.protect {
		out, err = protector.Restore(out)
		if err != nil {
			return nil, fmt.Errorf("%s: restore math: %w", name, err)
		}
	}

	if p.finish != nil {
		out, err = p.finish(name, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	result.Output = out
	result.Duration = time.Since(start)
	log.Debug("document processed",
		zap.String("transformer", p.transformer.Name()),
		zap.Int("blocks", len(result.Blocks)),
		zap.Duration("duration", result.Duration))
	return result, nil
}
