package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"go.uber.org/zap"
)

// Translator 把受保护文本翻译为目标语言的转换器
type Translator struct {
	client Client
	source string
	target string
	cache  Cache
	log    *zap.Logger
}

// TranslatorOption Translator 的可选依赖
type TranslatorOption func(*Translator)

// WithCache 设置翻译缓存
func WithCache(cache Cache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithTranslatorLogger 设置日志记录器
func WithTranslatorLogger(log *zap.Logger) TranslatorOption {
	return func(t *Translator) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTranslator 创建翻译转换器，source 为空时由模型自行判断源语言
func NewTranslator(client Client, source, target string, opts ...TranslatorOption) *Translator {
	t := &Translator{
		client: client,
		source: source,
		target: target,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name 返回转换器名称
func (t *Translator) Name() string {
	return "translate-" + t.client.Name()
}

// Transform 翻译文本并校验占位符
func (t *Translator) Transform(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := CacheKey(t.client.Name(), t.source, t.target, text)
	if t.cache != nil {
		cached, ok, err := t.cache.Get(key)
		if err != nil {
			t.log.Warn("translation cache lookup failed", zap.Error(err))
		} else if ok {
			t.log.Debug("translation cache hit", zap.String("key", key[:12]))
			return cached, nil
		}
	}

	out, err := t.client.Complete(ctx, SystemPrompt(t.source, t.target), text)
	if err != nil {
		return "", err
	}
	if err := VerifyPlaceholders(text, out); err != nil {
		return "", err
	}

	if t.cache != nil {
		if err := t.cache.Put(key, out); err != nil {
			t.log.Warn("translation cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

// VerifyPlaceholders 检查译文中的占位符与原文完全一致（按出现次数计）
func VerifyPlaceholders(original, translated string) error {
	counts := make(map[int]int)
	for _, i := range mathguard.Placeholders(original) {
		counts[i]++
	}
	for _, i := range mathguard.Placeholders(translated) {
		counts[i]--
	}

	var missing, extra []int
	for i, n := range counts {
		switch {
		case n > 0:
			missing = append(missing, i)
		case n < 0:
			extra = append(extra, i)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	slices.Sort(missing)
	slices.Sort(extra)
	return fmt.Errorf("%w: missing %v, unexpected %v", ErrPlaceholderMismatch, missing, extra)
}
