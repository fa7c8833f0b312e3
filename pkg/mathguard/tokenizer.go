package mathguard

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	beginPrefix = `\begin`
	endPrefix   = `\end`
)

// Tokenizer 把文本切分为 普通文本/定界符 交替的片段序列
//
// 返回的切片中偶数下标是普通文本，奇数下标是定界符，按顺序拼接可以还原输入。
type Tokenizer struct {
	pattern *regexp2.Regexp
}

// NewTokenizer 根据行内与行间定界符构建切分器
func NewTokenizer(inlineMark, displayMark string) *Tokenizer {
	return &Tokenizer{pattern: regexp2.MustCompile(splitPattern(inlineMark, displayMark), regexp2.IgnoreCase)}
}

func splitPattern(inlineMark, displayMark string) string {
	marks := []string{inlineMark, displayMark}
	// 较长的定界符优先，$$ 不能被拆成两个 $
	sort.SliceStable(marks, func(i, j int) bool { return len(marks[i]) > len(marks[j]) })

	escapes := []string{`\\`, `\{`, `\}`}
	seen := map[rune]bool{}
	for _, m := range marks {
		r := []rune(m)[0]
		if seen[r] || r == '\\' {
			continue
		}
		seen[r] = true
		escapes = append(escapes, regexp2.Escape(string(r)))
	}

	alts := []string{
		`@@[0-9]+@@`,
		regexp2.Escape(marks[0]),
		regexp2.Escape(marks[1]),
		`\\(?:begin|end)\{[a-z]+\*?\}`,
		`\\(?:` + strings.Join(escapes, "|") + `)`,
		`[{}]`,
		`(?:\n\s*)+`,
	}
	return "(" + strings.Join(alts, "|") + ")"
}

// Split 切分文本，结果长度总为奇数
//
// 片段直接从原文按字节截取，非法 UTF-8 字节原样保留。
func (t *Tokenizer) Split(text string) []string {
	off := runeOffsets(text)
	segments := make([]string, 0, 16)
	prev := 0

	// 没有设置超时，FindStringMatch 不会返回错误
	m, _ := t.pattern.FindStringMatch(text)
	for m != nil {
		start, end := off[m.Index], off[m.Index+m.Length]
		segments = append(segments, text[prev:start], text[start:end])
		prev = end
		m, _ = t.pattern.FindNextMatch(m)
	}
	return append(segments, text[prev:])
}

// runeOffsets 把 regexp2 的 rune 下标映射为字节偏移，末尾追加 len(text)
//
// regexp2 内部按 []rune 匹配，每个非法字节对应一个 U+FFFD，
// utf8.DecodeRuneInString 对非法字节同样只前进一个字节，两者一一对应。
func runeOffsets(text string) []int {
	off := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		off = append(off, i)
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return append(off, len(text))
}

// replaceMatches 用 fn 的结果替换 re 的每个匹配，未匹配部分按字节从原文复制
//
// fn 收到的 span 是匹配在原文中的字节区间，group 把分组编号换算为字节区间。
func replaceMatches(re *regexp2.Regexp, text string, fn func(span [2]int, group func(n int) [2]int) string) string {
	off := runeOffsets(text)
	var b strings.Builder
	prev := 0
	m, _ := re.FindStringMatch(text)
	if m == nil {
		return text
	}
	for m != nil {
		cur := m
		span := [2]int{off[cur.Index], off[cur.Index+cur.Length]}
		group := func(n int) [2]int {
			g := cur.GroupByNumber(n)
			if g == nil || len(g.Captures) == 0 {
				return [2]int{span[0], span[0]}
			}
			return [2]int{off[g.Index], off[g.Index+g.Length]}
		}
		b.WriteString(text[prev:span[0]])
		b.WriteString(fn(span, group))
		prev = span[1]
		m, _ = re.FindNextMatch(m)
	}
	b.WriteString(text[prev:])
	return b.String()
}

func isPlaceholderToken(tok string) bool {
	return strings.HasPrefix(tok, "@@")
}

// isParagraphBreak 至少包含两个换行的换行串才算空行
func isParagraphBreak(tok string) bool {
	return tok != "" && tok[0] == '\n' && strings.Count(tok, "\n") >= 2
}

// environmentEnd 对 \begin{X} 返回 \end{X}
func environmentEnd(tok string) (string, bool) {
	if !strings.HasPrefix(tok, beginPrefix+"{") {
		return "", false
	}
	return endPrefix + tok[len(beginPrefix):], true
}
