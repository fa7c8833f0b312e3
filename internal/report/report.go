// Package report 以表格、YAML 或 JSON 展示提取出的公式
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"gopkg.in/yaml.v3"
)

// Format 输出格式
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// ParseFormat 解析输出格式，空字符串视为表格
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q", name)
	}
}

// Write 按格式输出
func Write(w io.Writer, format Format, blocks []mathguard.Block, width int) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, blocks)
	case FormatJSON:
		return WriteJSON(w, blocks)
	default:
		WriteTable(w, blocks, width)
		return nil
	}
}

// Filter 返回内容模糊匹配 query 的条目（忽略大小写）
func Filter(blocks []mathguard.Block, query string) []mathguard.Block {
	if query == "" {
		return blocks
	}
	var matched []mathguard.Block
	for _, b := range blocks {
		if fuzzy.MatchFold(query, b.Text) {
			matched = append(matched, b)
		}
	}
	return matched
}

// Preview 把多行内容压成一行，并按显示宽度截断；width <= 0 时不截断
func Preview(text string, width int) string {
	line := strings.Join(strings.Fields(text), " ")
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	return truncate.StringWithTail(line, uint(width), "…")
}

// WriteTable 输出表格
func WriteTable(w io.Writer, blocks []mathguard.Block, width int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Placeholder", "Kind", "Open", "Content"})
	for _, b := range blocks {
		tw.AppendRow(table.Row{b.Index, mathguard.Placeholder(b.Index), b.Kind.String(), b.Open, Preview(b.Text, width)})
	}
	tw.AppendFooter(table.Row{"", "", "", "Total", strconv.Itoa(len(blocks))})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// WriteYAML 输出 YAML
func WriteYAML(w io.Writer, blocks []mathguard.Block) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(blocks); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON 输出 JSON
func WriteJSON(w io.Writer, blocks []mathguard.Block) error {
	if blocks == nil {
		blocks = []mathguard.Block{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(blocks)
}

// Highlight 给文本中的占位符加上颜色，enabled 为 false 时原样返回
func Highlight(text string, enabled bool) string {
	c := color.New(color.FgYellow, color.Bold)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return mathguard.MapPlaceholders(text, func(_ int, token string) string {
		return c.Sprint(token)
	})
}

// Summary 单篇文档处理结果的一行摘要
func Summary(name string, blocks int, d time.Duration) string {
	return fmt.Sprintf("%s: %d blocks protected in %s", name, blocks, d.Round(time.Millisecond))
}
