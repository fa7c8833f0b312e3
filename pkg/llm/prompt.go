package llm

import (
	"fmt"
	"strings"
)

// PreservePrompt 要求模型原样保留占位符的说明
const PreservePrompt = `IMPORTANT: Preserve Markers
- Do not translate or modify any text that matches the pattern: @@\d+@@
- These markers stand for formulas that were removed before translation.
- Keep every marker exactly once in your output, at the position where it belongs in the translated sentence.
- Example: @@0@@ should remain @@0@@.`

// SystemPrompt 构建翻译系统提示
func SystemPrompt(source, target string) string {
	var b strings.Builder
	b.WriteString("You are a professional translator. Translate accurately while preserving the original meaning, tone and Markdown structure.")
	if source != "" {
		fmt.Fprintf(&b, "\nSource language: %s.", source)
	}
	fmt.Fprintf(&b, "\nTarget language: %s.", target)
	b.WriteString("\nOutput only the translation without explanations.")
	b.WriteString("\n\n")
	b.WriteString(PreservePrompt)
	return b.String()
}
