package mathguard

import (
	"fmt"
	"strings"
	"unicode"
)

// Config 公式定界符配置
type Config struct {
	// 行内公式定界符
	InlineMark string `mapstructure:"inline_mark" yaml:"inline_mark"`
	// 行间公式定界符
	DisplayMark string `mapstructure:"display_mark" yaml:"display_mark"`
	// 提取前把 \r\n 和 \r 统一为 \n
	NormalizeLineEndings bool `mapstructure:"normalize_line_endings" yaml:"normalize_line_endings"`
}

// DefaultConfig 默认配置：$ 与 $$
var DefaultConfig = Config{
	InlineMark:  "$",
	DisplayMark: "$$",
}

// Validate 检查定界符是否可以被无歧义地切分
func (c Config) Validate() error {
	if err := validateMark("inline", c.InlineMark); err != nil {
		return err
	}
	if err := validateMark("display", c.DisplayMark); err != nil {
		return err
	}
	if c.InlineMark == c.DisplayMark {
		return fmt.Errorf("%w: inline and display marks are both %q", ErrInvalidConfig, c.InlineMark)
	}
	if overlappingMarks(c.InlineMark, c.DisplayMark) {
		return fmt.Errorf("%w: inline mark %q and display mark %q overlap", ErrInvalidConfig, c.InlineMark, c.DisplayMark)
	}
	return nil
}

// overlappingMarks 一个定界符包含另一个时切分会有歧义
//
// 唯一例外是 X 与 XX（如 $ 与 $$）：较长者优先匹配，相邻的两个 X 总是读作 XX。
func overlappingMarks(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if !strings.Contains(b, a) {
		return false
	}
	return b != a+a
}

func validateMark(kind, mark string) error {
	if mark == "" {
		return fmt.Errorf("%w: %s mark is empty", ErrInvalidConfig, kind)
	}
	for _, r := range mark {
		switch {
		case unicode.IsSpace(r), unicode.IsLetter(r), unicode.IsDigit(r):
			return fmt.Errorf("%w: %s mark %q contains %q", ErrInvalidConfig, kind, mark, r)
		case strings.ContainsRune("{}~@`", r):
			return fmt.Errorf("%w: %s mark %q contains reserved character %q", ErrInvalidConfig, kind, mark, r)
		}
	}
	return nil
}

// markRunes 返回代码片段中需要屏蔽的定界符首字符，行内在前，去重
func (c Config) markRunes() []rune {
	inline := []rune(c.InlineMark)[0]
	display := []rune(c.DisplayMark)[0]
	if inline == display {
		return []rune{inline}
	}
	return []rune{inline, display}
}
