package mathguard

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// 行内代码：可选的非转义前导字符、反引号串、内容、同长度反引号串，且后面不再紧跟反引号
var codeSpanPattern = regexp2.MustCompile("(^|[^\\\\])(`+)([^\\n]*?[^`\\n])\\2(?!`)", regexp2.Multiline)

var markTags = []string{"~D", "~E"}

// codeSpanMasker 在提取前把代码片段里的定界符字符替换为 ~D/~E，
// 同时把全文的 ~ 替换为 ~T，保证可逆。
type codeSpanMasker struct {
	mask   *strings.Replacer
	unmask *strings.Replacer
}

func newCodeSpanMasker(marks []rune) *codeSpanMasker {
	maskPairs := make([]string, 0, 2*len(marks))
	unmaskPairs := []string{"~T", "~"}
	for i, r := range marks {
		maskPairs = append(maskPairs, string(r), markTags[i])
		unmaskPairs = append(unmaskPairs, markTags[i], string(r))
	}
	return &codeSpanMasker{
		mask:   strings.NewReplacer(maskPairs...),
		unmask: strings.NewReplacer(unmaskPairs...),
	}
}

// Mask 返回屏蔽后的文本，第二个返回值表示是否发生了屏蔽（需要 Unmask）
func (m *codeSpanMasker) Mask(text string) (string, bool) {
	if !strings.Contains(text, "`") {
		return text, false
	}
	text = strings.ReplaceAll(text, "~", "~T")
	masked := replaceMatches(codeSpanPattern, text, func(span [2]int, group func(int) [2]int) string {
		lead := group(1)
		return text[span[0]:lead[1]] + m.mask.Replace(text[lead[1]:span[1]])
	})
	return masked, true
}

// Unmask 还原 Mask 引入的 ~T/~D/~E
func (m *codeSpanMasker) Unmask(text string) string {
	return m.unmask.Replace(text)
}
