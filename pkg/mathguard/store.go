package mathguard

import (
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"
)

var placeholderPattern = regexp2.MustCompile(`@@([0-9]+)@@`, regexp2.None)

// BlockKind 存储条目的类型
type BlockKind int

const (
	// BlockMath 提取出的公式
	BlockMath BlockKind = iota
	// BlockLiteral 输入中原本就存在的占位符文本
	BlockLiteral
)

func (k BlockKind) String() string {
	if k == BlockLiteral {
		return "literal"
	}
	return "math"
}

// MarshalText 供 YAML/JSON 输出使用
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Block 提取存储中的一个条目，Index 对应占位符 @@Index@@
type Block struct {
	Index int       `json:"index" yaml:"index"`
	Kind  BlockKind `json:"kind" yaml:"kind"`
	// 起始定界符，例如 $、$$、\begin{align}；字面占位符为空
	Open string `json:"open,omitempty" yaml:"open,omitempty"`
	Text string `json:"text" yaml:"text"`
}

// Placeholder 返回编号 i 对应的占位符
func Placeholder(i int) string {
	return "@@" + strconv.Itoa(i) + "@@"
}

// Placeholders 按出现顺序返回文本中所有占位符的编号
func Placeholders(text string) []int {
	var indices []int
	m, _ := placeholderPattern.FindStringMatch(text)
	for m != nil {
		if i, err := strconv.Atoi(m.GroupByNumber(1).String()); err == nil {
			indices = append(indices, i)
		}
		m, _ = placeholderPattern.FindNextMatch(m)
	}
	return indices
}

// MapPlaceholders 用 fn 的返回值替换文本中的每个占位符，编号溢出时 index 为 -1
func MapPlaceholders(text string, fn func(index int, token string) string) string {
	return replaceMatches(placeholderPattern, text, func(span [2]int, group func(int) [2]int) string {
		digits := group(1)
		i, err := strconv.Atoi(text[digits[0]:digits[1]])
		if err != nil {
			i = -1
		}
		return fn(i, text[span[0]:span[1]])
	})
}

// Store 有序、只追加的提取存储
type Store struct {
	blocks []Block
}

// Len 当前条目数
func (s *Store) Len() int {
	return len(s.blocks)
}

// Blocks 返回条目的副本
func (s *Store) Blocks() []Block {
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Reset 清空存储
func (s *Store) Reset() {
	s.blocks = nil
}

// Push 追加条目并返回对应的占位符
func (s *Store) Push(kind BlockKind, open, text string) string {
	i := len(s.blocks)
	s.blocks = append(s.blocks, Block{Index: i, Kind: kind, Open: open, Text: text})
	return Placeholder(i)
}

// Expand 把文本中的占位符替换为存储内容
//
// 公式条目中可能含有同一轮中更早生成的占位符，只向更小的编号递归展开。
func (s *Store) Expand(text string) (string, error) {
	return s.expand(text, len(s.blocks))
}

func (s *Store) expand(text string, limit int) (string, error) {
	var firstErr error
	out := MapPlaceholders(text, func(i int, token string) string {
		if firstErr != nil {
			return token
		}
		if i < 0 || i >= limit {
			firstErr = fmt.Errorf("%w: %s (store holds %d blocks)", ErrPlaceholderOutOfRange, token, limit)
			return token
		}
		b := s.blocks[i]
		if b.Kind == BlockLiteral {
			return b.Text
		}
		inner, err := s.expand(b.Text, i)
		if err != nil {
			firstErr = err
			return token
		}
		return inner
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
