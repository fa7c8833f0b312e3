// Package mathguard 在文本交给下游转换（Markdown 转 HTML、格式化、翻译）之前，
// 把数学公式替换为 @@n@@ 占位符，转换完成后再把公式原样放回。
//
// 一个 Protector 对应一篇文档的一次 Extract/Restore 往返，不能被多篇文档并发共享。
package mathguard

import (
	"strings"

	"go.uber.org/zap"
)

var (
	htmlEscaper       = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	htmlUnescaper     = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
	lineEndingCleaner = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// BlockProcessor 在公式入库前对其做一次处理（已完成 HTML 转义）
type BlockProcessor func(block string) string

// UnescapeHTML 撤销入库时的 HTML 转义，用于输出不是 HTML 的下游转换
func UnescapeHTML(block string) string {
	return htmlUnescaper.Replace(block)
}

// Option Protector 的可选依赖
type Option func(*Protector)

// WithBlockProcessor 设置公式预处理函数
func WithBlockProcessor(fn BlockProcessor) Option {
	return func(p *Protector) {
		p.process = fn
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(p *Protector) {
		if log != nil {
			p.log = log
		}
	}
}

// Protector 公式保护器
type Protector struct {
	config    Config
	tokenizer *Tokenizer
	masker    *codeSpanMasker
	process   BlockProcessor
	log       *zap.Logger
	store     Store
}

// NewProtector 创建公式保护器，定界符配置不合法时返回 ErrInvalidConfig
func NewProtector(config Config, opts ...Option) (*Protector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Protector{
		config:    config,
		tokenizer: NewTokenizer(config.InlineMark, config.DisplayMark),
		masker:    newCodeSpanMasker(config.markRunes()),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config 返回保护器使用的配置
func (p *Protector) Config() Config {
	return p.config
}

// Blocks 返回当前提取存储的副本
func (p *Protector) Blocks() []Block {
	return p.store.Blocks()
}

// Extract 把公式替换为占位符，返回可以安全交给下游转换的文本
//
// 每次调用都会清空上一轮的存储。
func (p *Protector) Extract(text string) string {
	p.store.Reset()
	if p.config.NormalizeLineEndings {
		text = lineEndingCleaner.Replace(text)
	}

	masked, unmask := p.masker.Mask(text)
	s := &scanner{
		segments: p.tokenizer.Split(masked),
		p:        p,
		unmask:   unmask,
	}
	s.run()

	out := strings.Join(s.segments, "")
	if unmask {
		out = p.masker.Unmask(out)
	}
	p.log.Debug("math extracted",
		zap.Int("segments", len(s.segments)),
		zap.Int("blocks", p.store.Len()),
		zap.Int("abandoned", s.abandoned))
	return out
}

// Restore 把占位符替换回提取时保存的内容，并清空存储
func (p *Protector) Restore(text string) (string, error) {
	defer p.store.Reset()
	return p.store.Expand(text)
}

type scanState int

const (
	stateScanning scanState = iota
	stateInSpan
)

// scanner 在片段序列上运行的有限状态机，只看奇数下标的定界符
type scanner struct {
	segments []string
	p        *Protector
	unmask   bool

	state  scanState
	start  int
	end    string
	braces int
	// 最近一次在 braces > 0 时遇到的结束定界符
	fallback int

	// 已经重新入库的占位符片段，回退扫描时不再处理
	restored  map[int]bool
	abandoned int
}

func (s *scanner) run() {
	s.reset()
	s.restored = map[int]bool{}

	i := 1
	for i < len(s.segments) {
		next := i + 2
		tok := s.segments[i]
		switch {
		case isPlaceholderToken(tok):
			if !s.restored[i] {
				s.segments[i] = s.p.store.Push(BlockLiteral, "", tok)
				s.restored[i] = true
			}
		case s.state == stateInSpan:
			next = s.stepInSpan(i, tok)
		default:
			s.stepScanning(i, tok)
		}
		i = next
	}

	if s.state == stateInSpan && s.fallback >= 0 {
		s.finalize(s.fallback)
	}
}

func (s *scanner) stepScanning(i int, tok string) {
	cfg := s.p.config
	if tok == cfg.InlineMark || tok == cfg.DisplayMark {
		s.open(i, tok)
		return
	}
	if end, ok := environmentEnd(tok); ok {
		s.open(i, end)
	}
}

// stepInSpan 处理公式内部的定界符，返回下一个要处理的下标
func (s *scanner) stepInSpan(i int, tok string) int {
	switch {
	case tok == s.end:
		if s.braces > 0 {
			s.fallback = i
		} else {
			s.finalize(i)
		}
	case isParagraphBreak(tok):
		if s.fallback >= 0 {
			closeAt := s.fallback
			s.finalize(closeAt)
			return closeAt + 2
		}
		s.abandoned++
		s.reset()
	case tok == "{":
		s.braces++
	case tok == "}":
		if s.braces > 0 {
			s.braces--
		}
	}
	return i + 2
}

func (s *scanner) open(i int, end string) {
	s.state = stateInSpan
	s.start = i
	s.end = end
	s.braces = 0
	s.fallback = -1
}

func (s *scanner) reset() {
	s.state = stateScanning
	s.start = -1
	s.end = ""
	s.braces = 0
	s.fallback = -1
}

// finalize 把 start..closeAt 的片段合并为一个公式并替换为占位符
func (s *scanner) finalize(closeAt int) {
	block := strings.Join(s.segments[s.start:closeAt+1], "")
	if s.unmask {
		block = s.p.masker.Unmask(block)
	}
	block = htmlEscaper.Replace(block)
	if s.p.process != nil {
		block = s.p.process(block)
	}

	open := s.segments[s.start]
	for j := closeAt; j > s.start; j-- {
		s.segments[j] = ""
	}
	s.segments[s.start] = s.p.store.Push(BlockMath, open, block)
	s.reset()
}
